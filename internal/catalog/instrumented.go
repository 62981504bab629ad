package catalog

import (
	"context"
	"time"

	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/models"
)

// instrumented counts and logs every gateway call.
type instrumented struct {
	next    Gateway
	timeout time.Duration
	logger  Logger
}

// Instrument wraps g with call metrics.
func Instrument(g Gateway, log Logger) Gateway {
	return &instrumented{next: g, logger: log}
}

// InstrumentWithTimeout is Instrument with a deadline on every call.
func InstrumentWithTimeout(g Gateway, timeout time.Duration, log Logger) Gateway {
	return &instrumented{next: g, timeout: timeout, logger: log}
}

func (i *instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

func (i *instrumented) observe(op string, err error) {
	metrics.CatalogCalls.WithLabelValues(op, metrics.Status(err)).Inc()
	if err != nil {
		i.logger.Warn("catalog call failed", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
	}
}

func (i *instrumented) SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	hits, err := i.next.SearchByText(ctx, text)
	i.observe("searchByText", err)
	return hits, err
}

func (i *instrumented) FetchDetails(ctx context.Context, id string) (*models.ProductRecord, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	p, err := i.next.FetchDetails(ctx, id)
	i.observe("fetchDetails", err)
	return p, err
}

func (i *instrumented) SearchByFilter(ctx context.Context, status *models.ProductStatus, category string) ([]models.ProductRecord, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	out, err := i.next.SearchByFilter(ctx, status, category)
	i.observe("searchByFilter", err)
	return out, err
}

func (i *instrumented) SearchByDateRange(ctx context.Context, condition models.DateCondition, date time.Time) ([]models.ProductRecord, error) {
	ctx, cancel := i.bound(ctx)
	defer cancel()
	out, err := i.next.SearchByDateRange(ctx, condition, date)
	i.observe("searchByDateRange", err)
	return out, err
}
