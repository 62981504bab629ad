// internal/models/intent.go
package models

import (
	"strings"
	"time"
)

type IntentKind string

const (
	IntentDate           IntentKind = "date"
	IntentStatusCategory IntentKind = "status_category"
	IntentComparison     IntentKind = "comparison"
	IntentSingleProduct  IntentKind = "single_product"
	IntentChitchat       IntentKind = "chitchat"
	IntentUnrecognized   IntentKind = "unrecognized"
)

type DateCondition string

const (
	DateAfter  DateCondition = "after"
	DateBefore DateCondition = "before"
	DateOn     DateCondition = "on"
)

// ParseDateCondition accepts "since" as a synonym for "after".
func ParseDateCondition(s string) (DateCondition, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "after", "since":
		return DateAfter, true
	case "before":
		return DateBefore, true
	case "on":
		return DateOn, true
	}
	return "", false
}

type ListMode string

const (
	ModeList  ListMode = "list"
	ModeCount ListMode = "count"
)

// RequestedField is a data attribute a user asked about.
type RequestedField string

const (
	FieldPrice      RequestedField = "price"
	FieldCost       RequestedField = "cost"
	FieldProfit     RequestedField = "profit"
	FieldMargin     RequestedField = "margin"
	FieldMarkup     RequestedField = "markup"
	FieldInventory  RequestedField = "inventory"
	FieldDimensions RequestedField = "dimensions"
	FieldImageURL   RequestedField = "image_url"
)

// AllFields lists every field in display order.
var AllFields = []RequestedField{
	FieldPrice, FieldCost, FieldProfit, FieldMargin, FieldMarkup,
	FieldInventory, FieldDimensions, FieldImageURL,
}

var fieldAliases = map[string]RequestedField{
	"price":      FieldPrice,
	"prices":     FieldPrice,
	"cost":       FieldCost,
	"costs":      FieldCost,
	"profit":     FieldProfit,
	"margin":     FieldMargin,
	"markup":     FieldMarkup,
	"inventory":  FieldInventory,
	"stock":      FieldInventory,
	"quantity":   FieldInventory,
	"dimensions": FieldDimensions,
	"dimension":  FieldDimensions,
	"size":       FieldDimensions,
	"image_url":  FieldImageURL,
	"image":      FieldImageURL,
	"images":     FieldImageURL,
	"photo":      FieldImageURL,
	"picture":    FieldImageURL,
}

// ParseRequestedField normalises an oracle or user supplied field name.
func ParseRequestedField(s string) (RequestedField, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	f, ok := fieldAliases[key]
	return f, ok
}

// IsDerived reports whether the field is computed locally from cost and price.
func (f RequestedField) IsDerived() bool {
	return f == FieldProfit || f == FieldMargin || f == FieldMarkup
}

// Label is the human readable name of the field.
func (f RequestedField) Label() string {
	switch f {
	case FieldImageURL:
		return "image URL"
	default:
		return string(f)
	}
}

// FieldSet is an ordered set of requested fields.
type FieldSet []RequestedField

// NewFieldSet builds a de-duplicated set from raw names, skipping unknown ones.
func NewFieldSet(names ...string) FieldSet {
	var fs FieldSet
	for _, n := range names {
		if f, ok := ParseRequestedField(n); ok {
			fs = fs.Add(f)
		}
	}
	return fs
}

func (fs FieldSet) Has(f RequestedField) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// Add returns the set with f appended if it was not already present.
func (fs FieldSet) Add(f RequestedField) FieldSet {
	if fs.Has(f) {
		return fs
	}
	return append(fs, f)
}

// Ordered returns the fields in AllFields order.
func (fs FieldSet) Ordered() FieldSet {
	out := make(FieldSet, 0, len(fs))
	for _, f := range AllFields {
		if fs.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (fs FieldSet) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

type DateQuery struct {
	Condition DateCondition `json:"condition"`
	Date      time.Time     `json:"date"`
	Mode      ListMode      `json:"mode"`
}

type StatusCategoryQuery struct {
	Status   *ProductStatus `json:"status,omitempty"`
	Category string         `json:"category,omitempty"`
	Mode     ListMode       `json:"mode"`
}

type ComparisonQuery struct {
	Subject1 string   `json:"subject1"`
	Subject2 string   `json:"subject2"`
	Fields   FieldSet `json:"fields"`
}

type SingleProductQuery struct {
	Subject string   `json:"subject"`
	Fields  FieldSet `json:"fields"`
}

// Intent is the classified purpose of one utterance. Exactly one payload
// matching Kind is set.
type Intent struct {
	Kind           IntentKind           `json:"kind"`
	Date           *DateQuery           `json:"date,omitempty"`
	StatusCategory *StatusCategoryQuery `json:"statusCategory,omitempty"`
	Comparison     *ComparisonQuery     `json:"comparison,omitempty"`
	Single         *SingleProductQuery  `json:"single,omitempty"`
	Reply          string               `json:"reply,omitempty"`
}

func Unrecognized() Intent {
	return Intent{Kind: IntentUnrecognized}
}
