// pkg/registry/schema.go
package registry

// ReplyRegistry is the table of canned replies for non-product chit-chat.
type ReplyRegistry struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Default     string        `json:"default"`
	Replies     []CannedReply `json:"replies"`
}

// CannedReply answers any utterance matching one of its patterns.
type CannedReply struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Patterns []string `json:"patterns"`
	Response string   `json:"response"`
}
