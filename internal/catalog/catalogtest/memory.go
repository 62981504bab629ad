// Package catalogtest provides an in-memory catalog for tests.
package catalogtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"catalog-assistant/internal/catalog"
	"catalog-assistant/internal/models"
)

// Memory is an in-memory catalog.Gateway that counts its calls. Products are
// returned in insertion order.
type Memory struct {
	mu       sync.Mutex
	products []models.ProductRecord
	calls    map[string]int
	// Err, when set, is returned by every call.
	Err error
}

func NewMemory(products ...models.ProductRecord) *Memory {
	return &Memory{products: products, calls: make(map[string]int)}
}

func (m *Memory) Add(p models.ProductRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, p)
}

// Calls returns the number of calls to op, or to every operation when op is "".
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if op != "" {
		return m.calls[op]
	}
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *Memory) record(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.Err
}

func (m *Memory) SearchByText(_ context.Context, text string) ([]models.ProductSummary, error) {
	if err := m.record("searchByText"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil, nil
	}

	var hits []models.ProductSummary
	for i := range m.products {
		p := &m.products[i]
		if strings.Contains(strings.ToLower(p.Title), needle) || hasSKU(p, needle) {
			hits = append(hits, p.Summary())
		}
	}
	if len(hits) > 0 {
		return hits, nil
	}

	terms := catalog.FuzzyTerms(text, 3)
	for i := range m.products {
		p := &m.products[i]
		title := strings.ToLower(p.Title)
		for _, t := range terms {
			if strings.Contains(title, t) {
				hits = append(hits, p.Summary())
				break
			}
		}
	}
	return hits, nil
}

func hasSKU(p *models.ProductRecord, sku string) bool {
	for _, v := range p.Variants {
		if strings.EqualFold(v.SKU, sku) {
			return true
		}
	}
	return false
}

func (m *Memory) FetchDetails(_ context.Context, id string) (*models.ProductRecord, error) {
	if err := m.record("fetchDetails"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, id)
}

func (m *Memory) SearchByFilter(_ context.Context, status *models.ProductStatus, category string) ([]models.ProductRecord, error) {
	if err := m.record("searchByFilter"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.ProductRecord
	for _, p := range m.products {
		if status != nil && p.Status != *status {
			continue
		}
		if category != "" && !matchesCategory(p, category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func matchesCategory(p models.ProductRecord, category string) bool {
	if strings.EqualFold(p.ProductType, category) {
		return true
	}
	for _, t := range p.Tags {
		if strings.EqualFold(t, category) {
			return true
		}
	}
	return false
}

func (m *Memory) SearchByDateRange(_ context.Context, condition models.DateCondition, date time.Time) ([]models.ProductRecord, error) {
	if err := m.record("searchByDateRange"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	from, to := catalog.DateBounds(condition, date)
	var out []models.ProductRecord
	for _, p := range m.products {
		if !from.IsZero() && p.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !p.CreatedAt.Before(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Product is a shorthand for building single-variant test products.
func Product(id, title, price, cost string, inventory int) models.ProductRecord {
	qty := inventory
	return models.ProductRecord{
		ID:     id,
		Title:  title,
		Handle: strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Status: models.StatusActive,
		Variants: []models.VariantRecord{{
			ID:                id + "-v1",
			SKU:               strings.ToUpper(strings.ReplaceAll(title, " ", "-")),
			Title:             "Default Title",
			Price:             price,
			Cost:              cost,
			InventoryQuantity: &qty,
		}},
	}
}
