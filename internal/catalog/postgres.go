package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-assistant/internal/models"

	"github.com/lib/pq"
)

// PostgresGateway serves the catalog from the products/variants/inventory_items tables.
type PostgresGateway struct {
	db     *sql.DB
	opts   Options
	logger Logger
}

func NewPostgresGateway(db *sql.DB, opts Options, log Logger) *PostgresGateway {
	return &PostgresGateway{db: db, opts: opts.withDefaults(), logger: log}
}

func (g *PostgresGateway) SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	hits, err := g.querySummaries(ctx, queryExactText, "%"+escapeLike(text)+"%", text, g.opts.MaxSearchResults)
	if err != nil || len(hits) > 0 {
		return hits, err
	}

	terms := FuzzyTerms(text, g.opts.MinFuzzyTokenLength)
	if len(terms) == 0 {
		return nil, nil
	}
	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + escapeLike(t) + "%"
	}

	g.logger.Debug("exact search empty, trying fuzzy terms", map[string]interface{}{
		"text":  text,
		"terms": terms,
	})
	return g.querySummaries(ctx, queryFuzzyText, pq.Array(patterns), g.opts.MaxSearchResults)
}

func (g *PostgresGateway) querySummaries(ctx context.Context, query string, args ...interface{}) ([]models.ProductSummary, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, g.wrap(ctx, "searchByText", err)
	}
	defer rows.Close()

	var out []models.ProductSummary
	for rows.Next() {
		var s models.ProductSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Handle); err != nil {
			return nil, g.wrap(ctx, "searchByText", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap(ctx, "searchByText", err)
	}
	return out, nil
}

func (g *PostgresGateway) FetchDetails(ctx context.Context, id string) (*models.ProductRecord, error) {
	var (
		p                     models.ProductRecord
		status                string
		productType           sql.NullString
		tags                  pq.StringArray
		length, width, height sql.NullFloat64
		unit                  sql.NullString
	)

	err := g.db.QueryRowContext(ctx, queryProduct, id).Scan(
		&p.ID, &p.Title, &p.Handle, &status, &productType, &tags, &p.CreatedAt,
		&length, &width, &height, &unit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, g.wrap(ctx, "fetchDetails", err)
	}

	p.Status, _ = models.ParseProductStatus(status)
	p.ProductType = productType.String
	p.Tags = []string(tags)
	if length.Valid || width.Valid || height.Valid {
		p.Dimensions = &models.Dimensions{
			Length: length.Float64,
			Width:  width.Float64,
			Height: height.Float64,
			Unit:   unit.String,
		}
	}

	if p.Variants, err = g.fetchVariants(ctx, id); err != nil {
		return nil, err
	}
	if p.Media, err = g.fetchMedia(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *PostgresGateway) fetchVariants(ctx context.Context, productID string) ([]models.VariantRecord, error) {
	rows, err := g.db.QueryContext(ctx, queryVariants, productID)
	if err != nil {
		return nil, g.wrap(ctx, "fetchVariants", err)
	}
	defer rows.Close()

	var out []models.VariantRecord
	for rows.Next() {
		var (
			v          models.VariantRecord
			sku, price sql.NullString
			cost       sql.NullString
			inventory  sql.NullInt64
		)
		if err := rows.Scan(&v.ID, &sku, &v.Title, &price, &inventory, &cost); err != nil {
			return nil, g.wrap(ctx, "fetchVariants", err)
		}
		v.SKU = sku.String
		v.Price = price.String
		v.Cost = cost.String
		if inventory.Valid {
			qty := int(inventory.Int64)
			v.InventoryQuantity = &qty
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap(ctx, "fetchVariants", err)
	}
	return out, nil
}

func (g *PostgresGateway) fetchMedia(ctx context.Context, productID string) ([]models.MediaRef, error) {
	rows, err := g.db.QueryContext(ctx, queryMedia, productID)
	if err != nil {
		return nil, g.wrap(ctx, "fetchMedia", err)
	}
	defer rows.Close()

	var out []models.MediaRef
	for rows.Next() {
		var m models.MediaRef
		var alt sql.NullString
		if err := rows.Scan(&m.URL, &alt); err != nil {
			return nil, g.wrap(ctx, "fetchMedia", err)
		}
		m.AltText = alt.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap(ctx, "fetchMedia", err)
	}
	return out, nil
}

func (g *PostgresGateway) SearchByFilter(ctx context.Context, status *models.ProductStatus, category string) ([]models.ProductRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if status != nil {
		args = append(args, string(*status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if category = strings.TrimSpace(category); category != "" {
		args = append(args, category)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(lower(product_type) = lower($%d) OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE lower(t) = lower($%d)))", n, n))
	}

	query := queryProductList
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += orderProductList

	return g.queryProducts(ctx, "searchByFilter", query, args...)
}

func (g *PostgresGateway) SearchByDateRange(ctx context.Context, condition models.DateCondition, date time.Time) ([]models.ProductRecord, error) {
	from, to := DateBounds(condition, date)

	var (
		where []string
		args  []interface{}
	)
	if !from.IsZero() {
		args = append(args, from)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := queryProductList + "\n\t\tWHERE " + strings.Join(where, " AND ") + orderProductList
	return g.queryProducts(ctx, "searchByDateRange", query, args...)
}

func (g *PostgresGateway) queryProducts(ctx context.Context, op, query string, args ...interface{}) ([]models.ProductRecord, error) {
	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, g.wrap(ctx, op, err)
	}
	defer rows.Close()

	var out []models.ProductRecord
	for rows.Next() {
		var (
			p           models.ProductRecord
			status      string
			productType sql.NullString
			tags        pq.StringArray
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Handle, &status, &productType, &tags, &p.CreatedAt); err != nil {
			return nil, g.wrap(ctx, op, err)
		}
		p.Status, _ = models.ParseProductStatus(status)
		p.ProductType = productType.String
		p.Tags = []string(tags)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, g.wrap(ctx, op, err)
	}
	return out, nil
}

func (g *PostgresGateway) wrap(ctx context.Context, op string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s", ErrTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
