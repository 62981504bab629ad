// Package composer turns catalog records and requested fields into reply text.
// Numbers are formatted here and in internal/finance only; the oracle may
// reword a reply but never supplies a value.
package composer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"catalog-assistant/internal/finance"
	"catalog-assistant/internal/models"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Phraser rewords already formatted facts.
type Phraser interface {
	Phrase(ctx context.Context, question, facts string) (string, error)
}

const (
	DefaultCurrencySymbol = "$"
	DefaultDimensionUnit  = "cm"
	DefaultListingCap     = 15
)

// Fixed user-facing messages.
const (
	MsgNotUnderstood = "Sorry, I couldn't understand that. Try asking about a product's price, stock, margin or dimensions."
	MsgUnavailable   = "Sorry, that information is unavailable right now. Please ask your question again."
	MsgNoProducts    = "No products found."
)

type Options struct {
	CurrencySymbol string
	DimensionUnit  string
	ListingCap     int
	// PhraseWithOracle lets the Phraser reword single product answers.
	PhraseWithOracle bool
}

func (o Options) withDefaults() Options {
	if o.CurrencySymbol == "" {
		o.CurrencySymbol = DefaultCurrencySymbol
	}
	if o.DimensionUnit == "" {
		o.DimensionUnit = DefaultDimensionUnit
	}
	if o.ListingCap <= 0 {
		o.ListingCap = DefaultListingCap
	}
	return o
}

type Composer struct {
	opts    Options
	phraser Phraser
	logger  Logger
}

// New builds a composer. phraser may be nil.
func New(opts Options, phraser Phraser, log Logger) *Composer {
	return &Composer{opts: opts.withDefaults(), phraser: phraser, logger: log}
}

// Value renders one field of a product variant. ok is false when the value
// is absent, in which case the text is finance.Unavailable.
func (c *Composer) Value(p *models.ProductRecord, v *models.VariantRecord, f models.RequestedField) (string, bool) {
	switch f {
	case models.FieldPrice:
		if v == nil {
			return finance.Unavailable, false
		}
		return c.money(v.Price)
	case models.FieldCost:
		if v == nil {
			return finance.Unavailable, false
		}
		return c.money(v.Cost)
	case models.FieldProfit, models.FieldMargin, models.FieldMarkup:
		if v == nil {
			return finance.Unavailable, false
		}
		fin := finance.Compute(v.Cost, v.Price)
		switch f {
		case models.FieldProfit:
			if fin.Profit == finance.Unavailable {
				return finance.Unavailable, false
			}
			return c.signed(fin.Profit), true
		case models.FieldMargin:
			return fin.Margin, fin.Margin != finance.Unavailable
		default:
			return fin.Markup, fin.Markup != finance.Unavailable
		}
	case models.FieldInventory:
		if v == nil || v.InventoryQuantity == nil {
			return finance.Unavailable, false
		}
		return fmt.Sprintf("%d units", *v.InventoryQuantity), true
	case models.FieldDimensions:
		if p == nil || p.Dimensions == nil {
			return finance.Unavailable, false
		}
		return c.dimensions(p.Dimensions), true
	case models.FieldImageURL:
		if url := p.ImageURL(); url != "" {
			return url, true
		}
	}
	return finance.Unavailable, false
}

func (c *Composer) money(amount string) (string, bool) {
	s, ok := finance.FormatAmount(amount)
	if !ok {
		return finance.Unavailable, false
	}
	return c.signed(s), true
}

func (c *Composer) signed(amount string) string {
	if strings.HasPrefix(amount, "-") {
		return "-" + c.opts.CurrencySymbol + amount[1:]
	}
	return c.opts.CurrencySymbol + amount
}

func (c *Composer) dimensions(d *models.Dimensions) string {
	unit := d.Unit
	if unit == "" {
		unit = c.opts.DimensionUnit
	}
	num := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	return fmt.Sprintf("%s x %s x %s %s", num(d.Length), num(d.Width), num(d.Height), unit)
}

// DisplayName names a product, adding the variant title unless it is the
// catalog's placeholder.
func DisplayName(p *models.ProductRecord, v *models.VariantRecord) string {
	if v == nil || v.Title == "" || v.Title == "Default Title" || len(p.Variants) <= 1 {
		return p.Title
	}
	return fmt.Sprintf("%s (%s)", p.Title, v.Title)
}

// Product answers the requested fields for one product variant.
func (c *Composer) Product(ctx context.Context, query string, p *models.ProductRecord, v *models.VariantRecord, fields models.FieldSet) string {
	fields = fields.Ordered()
	if len(fields) == 0 {
		fields = models.FieldSet{models.FieldPrice, models.FieldInventory}
	}

	name := DisplayName(p, v)
	tokens := make([]string, 0, len(fields))
	var b strings.Builder
	fmt.Fprintf(&b, "Here are the details for %s:", name)
	for _, f := range fields {
		val, _ := c.Value(p, v, f)
		tokens = append(tokens, val)
		fmt.Fprintf(&b, "\n- %s: %s", capitalize(f.Label()), val)
	}
	facts := b.String()

	return c.phrase(ctx, query, facts, append(tokens, name))
}

// phrase returns the oracle's wording of facts when it keeps every token
// verbatim, and facts otherwise.
func (c *Composer) phrase(ctx context.Context, query, facts string, tokens []string) string {
	if !c.opts.PhraseWithOracle || c.phraser == nil {
		return facts
	}

	text, err := c.phraser.Phrase(ctx, query, facts)
	if err != nil {
		c.logger.Debug("phrasing unavailable, using template", map[string]interface{}{"error": err.Error()})
		return facts
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return facts
	}
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			c.logger.Warn("phrasing dropped a value, using template", map[string]interface{}{"token": tok})
			return facts
		}
	}
	return text
}

// Comparison answers the requested fields for two products side by side.
func (c *Composer) Comparison(a, b *models.ProductRecord, fields models.FieldSet) string {
	fields = fields.Ordered()
	va, vb := a.PrimaryVariant(), b.PrimaryVariant()

	if len(fields) == 1 {
		f := fields[0]
		x, okA := c.Value(a, va, f)
		y, okB := c.Value(b, vb, f)
		label := f.Label()
		switch {
		case okA && okB:
			return fmt.Sprintf("The %s of %s is %s, while the %s of %s is %s.", label, a.Title, x, label, b.Title, y)
		case okA:
			return fmt.Sprintf("The %s of %s is %s, but the %s of %s is unavailable.", label, a.Title, x, label, b.Title)
		case okB:
			return fmt.Sprintf("The %s of %s is %s, but the %s of %s is unavailable.", label, b.Title, y, label, a.Title)
		default:
			return fmt.Sprintf("%s: unavailable for both %s and %s.", capitalize(label), a.Title, b.Title)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comparison of %s and %s:", a.Title, b.Title)
	for _, f := range fields {
		x, _ := c.Value(a, va, f)
		y, _ := c.Value(b, vb, f)
		fmt.Fprintf(&sb, "\n- %s: %s vs %s", capitalize(f.Label()), x, y)
	}
	return sb.String()
}

// Listing renders products in the order given, capped at the listing cap.
func (c *Composer) Listing(heading string, products []models.ProductRecord) string {
	if len(products) == 0 {
		return MsgNoProducts
	}

	shown := products
	if len(shown) > c.opts.ListingCap {
		shown = shown[:c.opts.ListingCap]
	}

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString(":")
	for _, p := range shown {
		fmt.Fprintf(&b, "\n- %s", p.Title)
		if p.Status != "" {
			fmt.Fprintf(&b, " (%s)", p.Status)
		}
	}
	if len(products) > len(shown) {
		fmt.Fprintf(&b, "\nShowing %d of %d products.", len(shown), len(products))
	}
	return b.String()
}

// Count renders a count answer.
func (c *Composer) Count(heading string, n int) string {
	if n == 1 {
		return fmt.Sprintf("There is 1 product %s.", heading)
	}
	return fmt.Sprintf("There are %d products %s.", n, heading)
}

// ProductChoicePrompt asks the user to pick one of several products.
func ProductChoicePrompt(titles []string) string {
	return fmt.Sprintf("I found multiple products: %s. Which one did you mean?", strings.Join(titles, ", "))
}

// VariantChoicePrompt asks the user to pick a variant of product.
func VariantChoicePrompt(product string, titles []string) string {
	return fmt.Sprintf("%s comes in several variants: %s. Could you please specify the variant?", product, strings.Join(titles, ", "))
}

// NotFound reports that nothing in the catalog matched subject.
func NotFound(subject string) string {
	return fmt.Sprintf("I couldn't find any product matching %q.", subject)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
