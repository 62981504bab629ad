// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const defaultReply = "I can help with questions about our products: prices, costs, margins, stock levels, dimensions, images, or lists by status, category and creation date."

// LoadRegistry reads a reply registry from a JSON file.
func LoadRegistry(path string) (*ReplyRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ReplyRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse reply registry %s: %w", path, err)
	}
	if reg.Default == "" {
		reg.Default = defaultReply
	}
	return &reg, nil
}

// Default returns the built-in replies used when no registry file is configured.
func Default() *ReplyRegistry {
	return &ReplyRegistry{
		Version: "1",
		Default: defaultReply,
		Replies: []CannedReply{
			{ID: "greeting", Category: "greeting", Patterns: []string{"hi", "hello", "hey", "hi there", "hello there", "good morning", "good afternoon", "good evening"},
				Response: "Hello! Ask me about any product's price, stock, margin or dimensions."},
			{ID: "wellbeing", Category: "greeting", Patterns: []string{"how are you", "how's it going"},
				Response: "I'm doing well, thanks! What product can I look up for you?"},
			{ID: "thanks", Category: "thanks", Patterns: []string{"thanks", "thank you", "thx", "cheers"},
				Response: "You're welcome! Anything else you'd like to know about the catalog?"},
			{ID: "farewell", Category: "farewell", Patterns: []string{"bye", "goodbye", "see you", "see ya"},
				Response: "Goodbye! Come back any time you need product details."},
			{ID: "help", Category: "help", Patterns: []string{"help", "what can you do", "how does this work"},
				Response: "Try questions like \"price of Widget Blue\", \"compare ALPHA-1 and BETA-2\", \"how many draft products\" or \"products created after 2024-01-01\"."},
		},
	}
}

// Lookup resolves the reply for an utterance: an exact pattern match first,
// then the longest pattern contained in the text, then the default reply.
func (r *ReplyRegistry) Lookup(text string) string {
	norm := normalize(text)

	for _, reply := range r.Replies {
		for _, p := range reply.Patterns {
			if norm == normalize(p) {
				return reply.Response
			}
		}
	}

	best, bestLen := "", 0
	padded := " " + norm + " "
	for _, reply := range r.Replies {
		for _, p := range reply.Patterns {
			np := normalize(p)
			if np != "" && len(np) > bestLen && strings.Contains(padded, " "+np+" ") {
				best, bestLen = reply.Response, len(np)
			}
		}
	}
	if best != "" {
		return best
	}
	return r.Default
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '!', '?', '.', ',', ';', ':':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
