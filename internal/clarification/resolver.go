// Package clarification resolves a follow-up utterance against a pending
// product or variant choice.
package clarification

import (
	"context"

	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/models"
	"catalog-assistant/internal/oracle"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Matcher picks one candidate title for a reply.
type Matcher interface {
	Match(ctx context.Context, reply string, candidates []string) (oracle.MatchResult, error)
}

// Fetcher loads the full record of a chosen product.
type Fetcher interface {
	FetchDetails(ctx context.Context, id string) (*models.ProductRecord, error)
}

type Outcome string

const (
	// OutcomeResolved means Resolution is set and the state is idle again.
	OutcomeResolved Outcome = "resolved"
	// OutcomeAwaitVariant means a product was chosen but its variant is still open.
	OutcomeAwaitVariant Outcome = "await_variant"
	// OutcomeFailed means the reply named no candidate; the state is reset.
	OutcomeFailed Outcome = "failed"
)

// Resolution is what the pending question turned into.
type Resolution struct {
	Product *models.ProductRecord
	// Variant is nil when the product has no variants.
	Variant *models.VariantRecord
	Query   string
	Fields  models.FieldSet
}

type Result struct {
	Outcome    Outcome
	Resolution Resolution
	State      models.ConversationState
}

type Resolver struct {
	matcher Matcher
	catalog Fetcher
	logger  Logger
}

func NewResolver(matcher Matcher, catalog Fetcher, log Logger) *Resolver {
	return &Resolver{matcher: matcher, catalog: catalog, logger: log}
}

// Continue advances a non-idle state with the user's reply.
func (r *Resolver) Continue(ctx context.Context, state models.ConversationState, reply string) Result {
	switch state.Phase() {
	case models.PhaseAwaitingProductChoice:
		return r.continueProduct(ctx, state, reply)
	case models.PhaseAwaitingVariantChoice:
		return r.continueVariant(ctx, state, reply)
	}
	return r.fail(state, "not_pending")
}

func (r *Resolver) continueProduct(ctx context.Context, state models.ConversationState, reply string) Result {
	cand, ok := r.strictMatch(ctx, reply, state.Candidates)
	if !ok {
		return r.fail(state, "no_match")
	}

	product, err := r.catalog.FetchDetails(ctx, cand.ID)
	if err != nil {
		r.logger.Warn("fetch of chosen product failed", map[string]interface{}{
			"productId": cand.ID,
			"error":     err.Error(),
		})
		return r.fail(state, "catalog_error")
	}

	if len(product.Variants) <= 1 {
		return r.resolve(state, product, product.PrimaryVariant())
	}

	next := state.AwaitVariant(product, state.OriginalQuery, state.OriginalFields)
	if v, ok := r.strictMatch(ctx, reply, next.Candidates); ok {
		return r.resolve(state, product, product.FindVariant(v.ID))
	}

	metrics.ClarificationsTotal.WithLabelValues(string(models.ClarificationProduct), "narrowed").Inc()
	r.logger.Info("awaiting variant choice", map[string]interface{}{
		"productId": product.ID,
		"variants":  len(product.Variants),
	})
	return Result{Outcome: OutcomeAwaitVariant, State: next}
}

func (r *Resolver) continueVariant(ctx context.Context, state models.ConversationState, reply string) Result {
	cand, ok := r.strictMatch(ctx, reply, state.Candidates)
	if !ok {
		return r.fail(state, "no_match")
	}
	variant := state.PendingParent.FindVariant(cand.ID)
	if variant == nil {
		return r.fail(state, "no_match")
	}
	return r.resolve(state, state.PendingParent, variant)
}

// strictMatch accepts the oracle's answer only when it is high confidence and
// literally one of the offered titles.
func (r *Resolver) strictMatch(ctx context.Context, reply string, candidates []models.Candidate) (models.Candidate, bool) {
	titles := make([]string, len(candidates))
	for i, c := range candidates {
		titles[i] = c.Title
	}

	res, err := r.matcher.Match(ctx, reply, titles)
	if err != nil {
		r.logger.Warn("candidate match unavailable", map[string]interface{}{"error": err.Error()})
		return models.Candidate{}, false
	}
	if res.Confidence != oracle.ConfidenceHigh {
		r.logger.Debug("candidate match not confident", map[string]interface{}{
			"confidence": res.Confidence,
			"title":      res.Title,
		})
		return models.Candidate{}, false
	}
	for _, c := range candidates {
		if c.Title == res.Title {
			return c, true
		}
	}
	r.logger.Debug("candidate match named unknown title", map[string]interface{}{"title": res.Title})
	return models.Candidate{}, false
}

func (r *Resolver) resolve(state models.ConversationState, product *models.ProductRecord, variant *models.VariantRecord) Result {
	metrics.ClarificationsTotal.WithLabelValues(string(state.ClarificationKind), "resolved").Inc()
	r.logger.Info("clarification resolved", map[string]interface{}{
		"kind":      string(state.ClarificationKind),
		"productId": product.ID,
	})
	return Result{
		Outcome: OutcomeResolved,
		Resolution: Resolution{
			Product: product,
			Variant: variant,
			Query:   state.OriginalQuery,
			Fields:  state.OriginalFields,
		},
		State: state.Reset(),
	}
}

func (r *Resolver) fail(state models.ConversationState, reason string) Result {
	metrics.ClarificationsTotal.WithLabelValues(string(state.ClarificationKind), reason).Inc()
	r.logger.Info("clarification abandoned", map[string]interface{}{
		"kind":   string(state.ClarificationKind),
		"reason": reason,
	})
	return Result{Outcome: OutcomeFailed, State: state.Reset()}
}
