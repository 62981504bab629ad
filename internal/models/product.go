// internal/models/product.go
package models

import (
	"strings"
	"time"
)

// ProductStatus is the three-valued catalog publication status.
type ProductStatus string

const (
	StatusDraft    ProductStatus = "DRAFT"
	StatusActive   ProductStatus = "ACTIVE"
	StatusArchived ProductStatus = "ARCHIVED"
)

// ParseProductStatus maps a status token onto the status enum.
func ParseProductStatus(s string) (ProductStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DRAFT", "UNPUBLISHED":
		return StatusDraft, true
	case "ACTIVE", "PUBLISHED":
		return StatusActive, true
	case "ARCHIVED":
		return StatusArchived, true
	}
	return "", false
}

// ProductSummary is a text-search hit.
type ProductSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

// ProductRecord is the full catalog view of a product.
type ProductRecord struct {
	ID          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Handle      string          `json:"handle" db:"handle"`
	Status      ProductStatus   `json:"status" db:"status"`
	ProductType string          `json:"productType" db:"product_type"`
	Tags        []string        `json:"tags" db:"tags"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	Variants    []VariantRecord `json:"variants"`
	Media       []MediaRef      `json:"media,omitempty"`
	Dimensions  *Dimensions     `json:"dimensions,omitempty"`
}

// VariantRecord is one purchasable variant. Price and Cost keep the catalog's
// decimal strings; an empty string means the value is absent.
type VariantRecord struct {
	ID                string `json:"id" db:"id"`
	SKU               string `json:"sku" db:"sku"`
	Title             string `json:"title" db:"title"`
	Price             string `json:"price" db:"price"`
	InventoryQuantity *int   `json:"inventoryQuantity,omitempty" db:"inventory_quantity"`
	Cost              string `json:"cost" db:"cost"`
}

// MediaRef points at a product image or video.
type MediaRef struct {
	URL     string `json:"url" db:"url"`
	AltText string `json:"altText,omitempty" db:"alt_text"`
}

// Dimensions are the shipping dimensions of a product.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit,omitempty"`
}

// Summary returns the search-hit view of the record.
func (p *ProductRecord) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Title: p.Title, Handle: p.Handle}
}

// PrimaryVariant returns the first variant in catalog order, or nil.
func (p *ProductRecord) PrimaryVariant() *VariantRecord {
	if p == nil || len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}

// FindVariant looks a variant up by id.
func (p *ProductRecord) FindVariant(id string) *VariantRecord {
	if p == nil {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// ImageURL returns the first media URL or "".
func (p *ProductRecord) ImageURL() string {
	if p == nil || len(p.Media) == 0 {
		return ""
	}
	return p.Media[0].URL
}
