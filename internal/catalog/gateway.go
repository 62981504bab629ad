// Package catalog resolves product names, filters and date ranges against the
// product/variant/inventory store.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-assistant/internal/models"
)

var (
	ErrNotFound    = errors.New("CATALOG_NOT_FOUND")
	ErrUnavailable = errors.New("CATALOG_UNAVAILABLE")
	ErrTimeout     = errors.New("CATALOG_TIMEOUT")
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Gateway is the catalog as seen by the assistant.
type Gateway interface {
	// SearchByText tries an exact search first and falls back to per-token
	// wildcard matching when nothing is found.
	SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error)
	FetchDetails(ctx context.Context, id string) (*models.ProductRecord, error)
	// SearchByFilter matches category against product type or any tag.
	SearchByFilter(ctx context.Context, status *models.ProductStatus, category string) ([]models.ProductRecord, error)
	SearchByDateRange(ctx context.Context, condition models.DateCondition, date time.Time) ([]models.ProductRecord, error)
}

// TextSearcher is the subset of Gateway a search index can serve.
type TextSearcher interface {
	SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error)
}

type Options struct {
	MinFuzzyTokenLength int
	MaxSearchResults    int
}

func (o Options) withDefaults() Options {
	if o.MinFuzzyTokenLength <= 0 {
		o.MinFuzzyTokenLength = 3
	}
	if o.MaxSearchResults <= 0 {
		o.MaxSearchResults = 25
	}
	return o
}

// FuzzyTerms splits text into the tokens eligible for wildcard expansion.
// Tokens shorter than minLen are dropped so short fragments cannot match
// large parts of the catalog.
func FuzzyTerms(text string, minLen int) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len([]rune(tok)) < minLen || seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
	}
	return terms
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', ',', '.', '?', '!', ';', ':', '"', '\'', '(', ')', '/':
		return true
	}
	return false
}

// DateBounds converts a condition on a calendar date into a half-open
// [from, to) interval on creation time. A zero bound is unbounded.
func DateBounds(condition models.DateCondition, date time.Time) (from, to time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	switch condition {
	case models.DateAfter:
		return next, time.Time{}
	case models.DateBefore:
		return time.Time{}, day
	default:
		return day, next
	}
}
