package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/models"
)

// Confidence levels returned by the match task.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

type DateExtraction struct {
	Condition models.DateCondition
	Date      time.Time
	// Mode is empty when the oracle left it out.
	Mode models.ListMode
}

type StatusCategoryExtraction struct {
	Status   *models.ProductStatus
	Category string
}

type ComparisonExtraction struct {
	IsComparison bool
	Subject1     string
	Subject2     string
	Fields       models.FieldSet
}

type SingleExtraction struct {
	Subject string
	Fields  models.FieldSet
}

type MatchResult struct {
	Title      string
	Confidence string
}

// Extractor runs the typed tasks on top of an Oracle.
type Extractor struct {
	oracle Oracle
	logger Logger
}

func NewExtractor(o Oracle, log Logger) *Extractor {
	return &Extractor{oracle: o, logger: log}
}

// run calls the oracle, validates the payload and decodes it into out.
func (e *Extractor) run(ctx context.Context, task Task, input string, out interface{}) error {
	raw, err := e.oracle.ExtractStructured(ctx, task, input)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(task.Name, "error").Inc()
		e.logger.Warn("oracle call failed", map[string]interface{}{
			"task":  task.Name,
			"error": err.Error(),
		})
		return err
	}
	if raw == nil {
		metrics.OracleCalls.WithLabelValues(task.Name, "declined").Inc()
		return ErrNoResult
	}

	if vr := task.Schema.Validate(raw); !vr.Valid {
		metrics.OracleCalls.WithLabelValues(task.Name, "unusable").Inc()
		e.logger.Warn("oracle payload rejected", map[string]interface{}{
			"task":   task.Name,
			"errors": vr.GetErrorMessages(),
		})
		return fmt.Errorf("%w: %s", ErrUnusable, strings.Join(vr.GetErrorMessages(), "; "))
	}

	data, err := json.Marshal(raw)
	if err != nil {
		metrics.OracleCalls.WithLabelValues(task.Name, "unusable").Inc()
		return fmt.Errorf("%w: %v", ErrUnusable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.OracleCalls.WithLabelValues(task.Name, "unusable").Inc()
		return fmt.Errorf("%w: %v", ErrUnusable, err)
	}

	metrics.OracleCalls.WithLabelValues(task.Name, "success").Inc()
	return nil
}

func (e *Extractor) Date(ctx context.Context, text string) (DateExtraction, error) {
	var payload struct {
		Condition string  `json:"condition"`
		Date      string  `json:"date"`
		Mode      *string `json:"mode"`
	}
	input := fmt.Sprintf("Today is %s.\nQuestion: %s", time.Now().UTC().Format("2006-01-02"), text)
	if err := e.run(ctx, DateTask, input, &payload); err != nil {
		return DateExtraction{}, err
	}

	cond, ok := models.ParseDateCondition(payload.Condition)
	if !ok {
		return DateExtraction{}, fmt.Errorf("%w: condition %q", ErrUnusable, payload.Condition)
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return DateExtraction{}, fmt.Errorf("%w: date %q", ErrUnusable, payload.Date)
	}

	out := DateExtraction{Condition: cond, Date: date}
	if payload.Mode != nil {
		out.Mode = models.ListMode(*payload.Mode)
	}
	return out, nil
}

func (e *Extractor) StatusCategory(ctx context.Context, text string) (StatusCategoryExtraction, error) {
	var payload struct {
		Status   *string `json:"status"`
		Category *string `json:"category"`
	}
	if err := e.run(ctx, StatusCategoryTask, text, &payload); err != nil {
		return StatusCategoryExtraction{}, err
	}

	var out StatusCategoryExtraction
	if payload.Status != nil && strings.TrimSpace(*payload.Status) != "" {
		status, ok := models.ParseProductStatus(*payload.Status)
		if !ok {
			return StatusCategoryExtraction{}, fmt.Errorf("%w: status %q", ErrUnusable, *payload.Status)
		}
		out.Status = &status
	}
	if payload.Category != nil {
		out.Category = strings.TrimSpace(*payload.Category)
	}
	return out, nil
}

func (e *Extractor) Comparison(ctx context.Context, text string) (ComparisonExtraction, error) {
	var payload struct {
		IsComparison bool     `json:"is_comparison"`
		Subject1     *string  `json:"subject1"`
		Subject2     *string  `json:"subject2"`
		Fields       []string `json:"fields"`
	}
	if err := e.run(ctx, ComparisonTask, text, &payload); err != nil {
		return ComparisonExtraction{}, err
	}

	return ComparisonExtraction{
		IsComparison: payload.IsComparison,
		Subject1:     deref(payload.Subject1),
		Subject2:     deref(payload.Subject2),
		Fields:       models.NewFieldSet(payload.Fields...),
	}, nil
}

func (e *Extractor) SingleProduct(ctx context.Context, text string) (SingleExtraction, error) {
	var payload struct {
		Subject *string  `json:"subject"`
		Fields  []string `json:"fields"`
	}
	if err := e.run(ctx, SingleProductTask, text, &payload); err != nil {
		return SingleExtraction{}, err
	}
	return SingleExtraction{
		Subject: deref(payload.Subject),
		Fields:  models.NewFieldSet(payload.Fields...),
	}, nil
}

// Match asks the oracle which candidate title the reply names. Callers must
// still check the title against their own candidate list.
func (e *Extractor) Match(ctx context.Context, reply string, candidates []string) (MatchResult, error) {
	var payload struct {
		Match      *string `json:"match"`
		Confidence string  `json:"confidence"`
	}

	var b strings.Builder
	b.WriteString("Candidates:\n")
	for _, c := range candidates {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("Reply: ")
	b.WriteString(reply)

	if err := e.run(ctx, MatchTask, b.String(), &payload); err != nil {
		return MatchResult{Confidence: ConfidenceLow}, err
	}
	out := MatchResult{Confidence: payload.Confidence}
	if payload.Match != nil {
		out.Title = *payload.Match
	}
	return out, nil
}

// Phrase asks the oracle to word already formatted facts.
func (e *Extractor) Phrase(ctx context.Context, question, facts string) (string, error) {
	var payload struct {
		Text string `json:"text"`
	}
	input := fmt.Sprintf("Question: %s\nFacts:\n%s", question, facts)
	if err := e.run(ctx, PhraseTask, input, &payload); err != nil {
		return "", err
	}
	return payload.Text, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
