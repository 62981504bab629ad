// Package router runs one conversation turn: it resumes a pending
// clarification or classifies the utterance, queries the catalog and
// composes the reply.
package router

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"catalog-assistant/internal/catalog"
	"catalog-assistant/internal/clarification"
	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/common/observability"
	"catalog-assistant/internal/composer"
	"catalog-assistant/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Classifier interface {
	Classify(ctx context.Context, text string) models.Intent
}

type Clarifier interface {
	Continue(ctx context.Context, state models.ConversationState, reply string) clarification.Result
}

// Reply is the outcome of one turn.
type Reply struct {
	Text   string
	Intent models.IntentKind
}

// IntentClarification labels turns that answered a pending clarification.
const IntentClarification models.IntentKind = "clarification"

type Router struct {
	classifier Classifier
	resolver   Clarifier
	catalog    catalog.Gateway
	composer   *composer.Composer
	obs        *observability.Observability
	logger     Logger
}

func New(cls Classifier, res Clarifier, gw catalog.Gateway, comp *composer.Composer, log Logger) *Router {
	return &Router{classifier: cls, resolver: res, catalog: gw, composer: comp, logger: log}
}

// WithObservability records turns on the OTel meter and tracer as well.
func (r *Router) WithObservability(o *observability.Observability) *Router {
	r.obs = o
	return r
}

// Respond handles one utterance against state and returns the reply with the
// next state. The input state is not modified.
func (r *Router) Respond(ctx context.Context, state models.ConversationState, utterance string) (Reply, models.ConversationState) {
	start := time.Now()
	ctx, span := r.obs.StartSpan(ctx, "router.respond",
		attribute.String("phase", string(state.Phase())))
	defer span.End()

	reply, next := r.respond(ctx, state, strings.TrimSpace(utterance))

	elapsed := time.Since(start)
	metrics.TurnsTotal.WithLabelValues(string(reply.Intent)).Inc()
	metrics.TurnDuration.WithLabelValues(string(reply.Intent)).Observe(elapsed.Seconds())
	r.obs.RecordTurn(ctx, string(reply.Intent), elapsed)
	span.SetAttributes(attribute.String("intent", string(reply.Intent)))
	return reply, next
}

func (r *Router) respond(ctx context.Context, state models.ConversationState, utterance string) (Reply, models.ConversationState) {
	if state.Phase() != models.PhaseIdle {
		return r.continueClarification(ctx, state, utterance)
	}
	if !state.IsIdle() {
		r.logger.Warn("discarding inconsistent session state", map[string]interface{}{
			"kind": string(state.ClarificationKind),
		})
		state = state.Reset()
	}

	intent := r.classifier.Classify(ctx, utterance)
	r.logger.Debug("utterance classified", map[string]interface{}{"intent": string(intent.Kind)})

	switch intent.Kind {
	case models.IntentChitchat:
		return Reply{Text: intent.Reply, Intent: intent.Kind}, state
	case models.IntentDate:
		return r.dateListing(ctx, intent.Date), state
	case models.IntentStatusCategory:
		return r.statusCategoryListing(ctx, intent.StatusCategory), state
	case models.IntentComparison:
		return r.comparison(ctx, state, utterance, intent.Comparison)
	case models.IntentSingleProduct:
		return r.singleProduct(ctx, state, utterance, intent.Single)
	}
	return Reply{Text: composer.MsgNotUnderstood, Intent: models.IntentUnrecognized}, state
}

func (r *Router) continueClarification(ctx context.Context, state models.ConversationState, utterance string) (Reply, models.ConversationState) {
	res := r.resolver.Continue(ctx, state, utterance)

	switch res.Outcome {
	case clarification.OutcomeResolved:
		rs := res.Resolution
		text := r.composer.Product(ctx, rs.Query, rs.Product, rs.Variant, rs.Fields)
		return Reply{Text: text, Intent: IntentClarification}, res.State
	case clarification.OutcomeAwaitVariant:
		text := composer.VariantChoicePrompt(res.State.PendingParent.Title, res.State.CandidateTitles())
		return Reply{Text: text, Intent: IntentClarification}, res.State
	}
	return Reply{Text: composer.MsgUnavailable, Intent: IntentClarification}, res.State
}

func (r *Router) dateListing(ctx context.Context, q *models.DateQuery) Reply {
	products, err := r.catalog.SearchByDateRange(ctx, q.Condition, q.Date)
	if err != nil {
		return r.unavailable(models.IntentDate, "searchByDateRange", err)
	}

	phrase := fmt.Sprintf("created %s %s", q.Condition, q.Date.Format("2006-01-02"))
	if q.Mode == models.ModeCount {
		return Reply{Text: r.composer.Count(phrase, len(products)), Intent: models.IntentDate}
	}
	return Reply{Text: r.composer.Listing("Products "+phrase, products), Intent: models.IntentDate}
}

func (r *Router) statusCategoryListing(ctx context.Context, q *models.StatusCategoryQuery) Reply {
	products, err := r.catalog.SearchByFilter(ctx, q.Status, q.Category)
	if err != nil {
		return r.unavailable(models.IntentStatusCategory, "searchByFilter", err)
	}

	var parts []string
	if q.Status != nil {
		parts = append(parts, "with status "+string(*q.Status))
	}
	if q.Category != "" {
		parts = append(parts, "in category "+q.Category)
	}
	phrase := strings.Join(parts, " ")

	if q.Mode == models.ModeCount {
		return Reply{Text: r.composer.Count(phrase, len(products)), Intent: models.IntentStatusCategory}
	}
	return Reply{Text: r.composer.Listing("Products "+phrase, products), Intent: models.IntentStatusCategory}
}

// lookup is the result of resolving one subject to at most one product.
type lookup struct {
	product *models.ProductRecord
	hits    []models.ProductSummary
	reply   *Reply
}

func (r *Router) lookup(ctx context.Context, kind models.IntentKind, subject string) lookup {
	hits, err := r.catalog.SearchByText(ctx, subject)
	if err != nil {
		reply := r.unavailable(kind, "searchByText", err)
		return lookup{reply: &reply}
	}
	switch len(hits) {
	case 0:
		return lookup{reply: &Reply{Text: composer.NotFound(subject), Intent: kind}}
	case 1:
	default:
		return lookup{hits: hits}
	}

	product, err := r.catalog.FetchDetails(ctx, hits[0].ID)
	if errors.Is(err, catalog.ErrNotFound) {
		return lookup{reply: &Reply{Text: composer.NotFound(subject), Intent: kind}}
	}
	if err != nil {
		reply := r.unavailable(kind, "fetchDetails", err)
		return lookup{reply: &reply}
	}
	return lookup{product: product}
}

func (r *Router) singleProduct(ctx context.Context, state models.ConversationState, utterance string, q *models.SingleProductQuery) (Reply, models.ConversationState) {
	found := r.lookup(ctx, models.IntentSingleProduct, q.Subject)
	if found.reply != nil {
		return *found.reply, state
	}
	if found.hits != nil {
		return r.askProduct(state, utterance, q.Fields, found.hits, models.IntentSingleProduct)
	}
	return r.answerProduct(ctx, state, utterance, q.Fields, found.product, models.IntentSingleProduct)
}

func (r *Router) comparison(ctx context.Context, state models.ConversationState, utterance string, q *models.ComparisonQuery) (Reply, models.ConversationState) {
	first := r.lookup(ctx, models.IntentComparison, q.Subject1)
	if first.reply != nil {
		return *first.reply, state
	}
	if first.hits != nil {
		return r.askProduct(state, utterance, q.Fields, first.hits, models.IntentComparison)
	}

	second := r.lookup(ctx, models.IntentComparison, q.Subject2)
	if second.reply != nil {
		return *second.reply, state
	}
	if second.hits != nil {
		return r.askProduct(state, utterance, q.Fields, second.hits, models.IntentComparison)
	}

	text := r.composer.Comparison(first.product, second.product, q.Fields)
	return Reply{Text: text, Intent: models.IntentComparison}, state
}

func (r *Router) answerProduct(ctx context.Context, state models.ConversationState, utterance string, fields models.FieldSet, p *models.ProductRecord, kind models.IntentKind) (Reply, models.ConversationState) {
	variant := p.PrimaryVariant()
	if len(p.Variants) > 1 {
		variant = variantNamedIn(p, utterance)
		if variant == nil {
			next := state.AwaitVariant(p, utterance, fields)
			metrics.ClarificationsTotal.WithLabelValues(string(models.ClarificationVariant), "started").Inc()
			r.logger.Info("awaiting variant choice", map[string]interface{}{
				"productId": p.ID,
				"variants":  len(p.Variants),
			})
			return Reply{Text: composer.VariantChoicePrompt(p.Title, next.CandidateTitles()), Intent: kind}, next
		}
	}
	return Reply{Text: r.composer.Product(ctx, utterance, p, variant, fields), Intent: kind}, state
}

func (r *Router) askProduct(state models.ConversationState, utterance string, fields models.FieldSet, hits []models.ProductSummary, kind models.IntentKind) (Reply, models.ConversationState) {
	next := state.AwaitProduct(hits, utterance, fields)
	metrics.ClarificationsTotal.WithLabelValues(string(models.ClarificationProduct), "started").Inc()
	r.logger.Info("awaiting product choice", map[string]interface{}{"candidates": len(hits)})
	return Reply{Text: composer.ProductChoicePrompt(next.CandidateTitles()), Intent: kind}, next
}

// variantNamedIn returns the only variant whose title appears as whole words
// in text, or nil.
func variantNamedIn(p *models.ProductRecord, text string) *models.VariantRecord {
	var found *models.VariantRecord
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.Title == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(v.Title) + `\b`)
		if !re.MatchString(text) {
			continue
		}
		if found != nil {
			return nil
		}
		found = v
	}
	return found
}

func (r *Router) unavailable(kind models.IntentKind, op string, err error) Reply {
	r.logger.Warn("catalog lookup failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return Reply{Text: composer.MsgUnavailable, Intent: kind}
}
