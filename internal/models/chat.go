// internal/models/chat.go
package models

// ChatRequest is one inbound utterance for a session.
type ChatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Query     string `json:"query"`
}

// ChatResponse is the text reply plus the session it belongs to.
type ChatResponse struct {
	SessionID             string `json:"sessionId"`
	Response              string `json:"response"`
	Intent                string `json:"intent,omitempty"`
	AwaitingClarification bool   `json:"awaitingClarification"`
}
