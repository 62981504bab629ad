// internal/workers/conversation/product-query/models.go
package productquery

type Input struct {
	SessionID string `json:"sessionId"`
	Query     string `json:"query"`
}

type Output struct {
	Response              string `json:"response"`
	SessionID             string `json:"sessionId"`
	AwaitingClarification bool   `json:"awaitingClarification"`
	Intent                string `json:"intent"`
}
