// internal/models/session.go
package models

// ClarificationKind names what a pending clarification is choosing between.
type ClarificationKind string

const (
	ClarificationNone    ClarificationKind = "none"
	ClarificationProduct ClarificationKind = "product_disambiguation"
	ClarificationVariant ClarificationKind = "variant_disambiguation"
)

// Phase is the clarification state derived from a ConversationState.
type Phase string

const (
	PhaseIdle                  Phase = "idle"
	PhaseAwaitingProductChoice Phase = "awaiting_product_choice"
	PhaseAwaitingVariantChoice Phase = "awaiting_variant_choice"
)

// Candidate is one option offered to the user during a clarification.
type Candidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ConversationState is the per-session record of a pending clarification.
// When AwaitingClarification is false every other field is zero.
type ConversationState struct {
	AwaitingClarification bool              `json:"awaitingClarification"`
	ClarificationKind     ClarificationKind `json:"clarificationKind,omitempty"`
	Candidates            []Candidate       `json:"candidates,omitempty"`
	PendingParent         *ProductRecord    `json:"pendingParent,omitempty"`
	OriginalQuery         string            `json:"originalQuery,omitempty"`
	OriginalFields        FieldSet          `json:"originalFields,omitempty"`
}

// NewConversationState returns the neutral state a session starts in.
func NewConversationState() ConversationState {
	return ConversationState{}
}

func (s ConversationState) Phase() Phase {
	if !s.AwaitingClarification {
		return PhaseIdle
	}
	switch s.ClarificationKind {
	case ClarificationProduct:
		return PhaseAwaitingProductChoice
	case ClarificationVariant:
		return PhaseAwaitingVariantChoice
	}
	return PhaseIdle
}

// IsIdle reports whether the state satisfies the neutral-state invariant.
func (s ConversationState) IsIdle() bool {
	return !s.AwaitingClarification &&
		(s.ClarificationKind == "" || s.ClarificationKind == ClarificationNone) &&
		len(s.Candidates) == 0 &&
		s.PendingParent == nil &&
		s.OriginalQuery == "" &&
		len(s.OriginalFields) == 0
}

// Reset returns the neutral state. All clarification fields are cleared together.
func (s ConversationState) Reset() ConversationState {
	return ConversationState{}
}

// AwaitProduct records a product disambiguation over the given search hits.
func (s ConversationState) AwaitProduct(candidates []ProductSummary, query string, fields FieldSet) ConversationState {
	cands := make([]Candidate, len(candidates))
	for i, c := range candidates {
		cands[i] = Candidate{ID: c.ID, Title: c.Title}
	}
	return ConversationState{
		AwaitingClarification: true,
		ClarificationKind:     ClarificationProduct,
		Candidates:            cands,
		OriginalQuery:         query,
		OriginalFields:        append(FieldSet(nil), fields...),
	}
}

// AwaitVariant records a variant disambiguation within parent.
func (s ConversationState) AwaitVariant(parent *ProductRecord, query string, fields FieldSet) ConversationState {
	cands := make([]Candidate, len(parent.Variants))
	for i, v := range parent.Variants {
		cands[i] = Candidate{ID: v.ID, Title: v.Title}
	}
	return ConversationState{
		AwaitingClarification: true,
		ClarificationKind:     ClarificationVariant,
		Candidates:            cands,
		PendingParent:         parent,
		OriginalQuery:         query,
		OriginalFields:        append(FieldSet(nil), fields...),
	}
}

// CandidateTitles returns the titles in offer order.
func (s ConversationState) CandidateTitles() []string {
	out := make([]string, len(s.Candidates))
	for i, c := range s.Candidates {
		out[i] = c.Title
	}
	return out
}

// CandidateByTitle returns the candidate whose title is exactly title.
func (s ConversationState) CandidateByTitle(title string) (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.Title == title {
			return c, true
		}
	}
	return Candidate{}, false
}
