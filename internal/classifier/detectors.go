package classifier

import (
	"context"
	"regexp"
	"strings"

	"catalog-assistant/internal/models"
)

var (
	chitchatPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(hi|hello|hey|hiya|howdy|yo|greetings|good (morning|afternoon|evening))( there| all| everyone)?$`),
		regexp.MustCompile(`^how (are you|is it going|s it going)( doing)?( today)?$`),
		regexp.MustCompile(`^(ok |okay |great |perfect )?(thanks|thank you|thx|ty|cheers|much appreciated)( (so|very) much| a lot| again)?$`),
		regexp.MustCompile(`^(ok |okay )?(bye|goodbye|bye bye|see you|see ya|later|good night)( later| soon)?$`),
		regexp.MustCompile(`^(help|help me|what can you do|how does this work|what do you do|who are you)$`),
	}

	productKeywords = map[string]bool{
		"price": true, "prices": true, "cost": true, "costs": true, "profit": true, "margin": true,
		"markup": true, "inventory": true, "stock": true, "quantity": true, "dimensions": true,
		"dimension": true, "size": true, "image": true, "images": true, "photo": true, "picture": true,
		"product": true, "products": true, "item": true, "items": true, "sku": true, "variant": true,
		"variants": true, "compare": true, "vs": true, "versus": true, "difference": true,
		"created": true, "draft": true, "active": true, "archived": true, "published": true,
		"unpublished": true, "status": true, "category": true, "categories": true, "collection": true,
		"count": true, "list": true, "show": true, "many": true,
	}

	dateCue = regexp.MustCompile(`\b(created after|created before|created on|after|before|since)\b`)

	statusTokens = []struct {
		re     *regexp.Regexp
		status models.ProductStatus
	}{
		{regexp.MustCompile(`\bunpublished\b`), models.StatusDraft},
		{regexp.MustCompile(`\bpublished\b`), models.StatusActive},
		{regexp.MustCompile(`\bdraft\b`), models.StatusDraft},
		{regexp.MustCompile(`\bactive\b`), models.StatusActive},
		{regexp.MustCompile(`\barchived\b`), models.StatusArchived},
	}
	statusKeyword   = regexp.MustCompile(`\bstatus(es)?\b`)
	categoryKeyword = regexp.MustCompile(`\b(category|categories|type|collection)\b`)
	quotedCategory  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:category|categories|type|collection|tag|tagged)\s*(?:of|is|as|=|:)?\s*["“']([^"”']+)["”']`),
		regexp.MustCompile(`(?i)["“']([^"”']+)["”']\s+(?:category|collection|type|products|items)\b`),
	}
	countCue = regexp.MustCompile(`\bhow many\b|\bcount\b`)

	comparisonKeywords = []string{"compare", "vs", "versus", "difference between", "and"}
	comparisonPattern  = regexp.MustCompile(`(?i)(\w+[-\w]*)\s+(and|vs|versus)\s+(\w+[-\w]*)`)
	financialCue       = regexp.MustCompile(`\b(cost|costs|profit|profits|margin|margins)\b`)
)

type detectors struct {
	ext        Extractor
	replies    Replier
	categories []string
	logger     Logger
}

func (d *detectors) chitchat(_ context.Context, text string) (models.Intent, bool) {
	norm := normalize(text)
	if !isChitchat(norm) {
		return models.Intent{}, false
	}
	return models.Intent{Kind: models.IntentChitchat, Reply: d.replies.Lookup(text)}, true
}

func isChitchat(norm string) bool {
	for _, re := range chitchatPatterns {
		if re.MatchString(norm) {
			return true
		}
	}

	words := strings.Fields(norm)
	if len(words) > 3 {
		return false
	}
	for _, w := range words {
		if productKeywords[w] || strings.ContainsAny(w, "0123456789") {
			return false
		}
	}
	return true
}

func (d *detectors) date(ctx context.Context, text string) (models.Intent, bool) {
	if !dateCue.MatchString(strings.ToLower(text)) {
		return models.Intent{}, false
	}

	ext, err := d.ext.Date(ctx, text)
	if err != nil {
		d.logger.Debug("date extraction unusable, falling through", map[string]interface{}{"error": err.Error()})
		return models.Intent{}, false
	}

	mode := ext.Mode
	if mode != models.ModeList && mode != models.ModeCount {
		mode = localMode(text)
	}
	return models.Intent{
		Kind: models.IntentDate,
		Date: &models.DateQuery{Condition: ext.Condition, Date: ext.Date, Mode: mode},
	}, true
}

func (d *detectors) statusCategory(ctx context.Context, text string) (models.Intent, bool) {
	lower := strings.ToLower(text)

	var status *models.ProductStatus
	for _, tok := range statusTokens {
		if tok.re.MatchString(lower) {
			s := tok.status
			status = &s
			break
		}
	}

	category := d.localCategory(text, lower)

	needStatus := status == nil && statusKeyword.MatchString(lower)
	needCategory := category == "" && categoryKeyword.MatchString(lower)
	if needStatus || needCategory {
		ext, err := d.ext.StatusCategory(ctx, text)
		if err != nil {
			d.logger.Debug("status/category extraction unusable", map[string]interface{}{"error": err.Error()})
		} else {
			if needStatus && ext.Status != nil {
				status = ext.Status
			}
			if needCategory && ext.Category != "" {
				category = ext.Category
			}
		}
	}

	if status == nil && category == "" {
		return models.Intent{}, false
	}
	return models.Intent{
		Kind: models.IntentStatusCategory,
		StatusCategory: &models.StatusCategoryQuery{
			Status:   status,
			Category: category,
			Mode:     localMode(text),
		},
	}, true
}

func (d *detectors) localCategory(text, lower string) string {
	for _, re := range quotedCategory {
		if m := re.FindStringSubmatch(text); m != nil {
			if c := strings.TrimSpace(m[1]); c != "" {
				return c
			}
		}
	}
	for _, c := range d.categories {
		if containsWord(lower, strings.ToLower(c)) {
			return c
		}
	}
	return ""
}

func (d *detectors) comparison(ctx context.Context, text string) (models.Intent, bool) {
	ext, err := d.ext.Comparison(ctx, text)
	if err == nil && ext.IsComparison && ext.Subject1 != "" && ext.Subject2 != "" {
		fields := ext.Fields
		if len(fields) == 0 {
			fields = defaultComparisonFields(text)
		}
		return comparisonIntent(ext.Subject1, ext.Subject2, fields), true
	}
	if err != nil {
		d.logger.Debug("comparison extraction unusable, trying pattern", map[string]interface{}{"error": err.Error()})
	}

	lower := strings.ToLower(text)
	hasKeyword := false
	for _, kw := range comparisonKeywords {
		if containsWord(lower, kw) {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return models.Intent{}, false
	}

	m := comparisonPattern.FindStringSubmatch(text)
	if m == nil {
		return models.Intent{}, false
	}
	s1, s2 := m[1], m[3]
	if isFieldWord(s1) || isFieldWord(s2) {
		return models.Intent{}, false
	}
	return comparisonIntent(s1, s2, defaultComparisonFields(text)), true
}

func comparisonIntent(s1, s2 string, fields models.FieldSet) models.Intent {
	return models.Intent{
		Kind:       models.IntentComparison,
		Comparison: &models.ComparisonQuery{Subject1: s1, Subject2: s2, Fields: fields},
	}
}

func defaultComparisonFields(text string) models.FieldSet {
	if financialCue.MatchString(strings.ToLower(text)) {
		return models.FieldSet{models.FieldPrice, models.FieldCost, models.FieldProfit, models.FieldMargin}
	}
	return models.FieldSet{models.FieldPrice, models.FieldCost, models.FieldInventory}
}

// singleProduct is the catch-all stage; it always fires.
func (d *detectors) singleProduct(ctx context.Context, text string) (models.Intent, bool) {
	ext, err := d.ext.SingleProduct(ctx, text)
	if err != nil || ext.Subject == "" {
		if err != nil {
			d.logger.Debug("single product extraction unusable", map[string]interface{}{"error": err.Error()})
		}
		return models.Unrecognized(), true
	}

	fields := ext.Fields
	if len(fields) == 0 {
		fields = mentionedFields(text)
	}
	if len(fields) == 0 {
		fields = models.FieldSet{models.FieldPrice, models.FieldInventory}
	}
	return models.Intent{
		Kind:   models.IntentSingleProduct,
		Single: &models.SingleProductQuery{Subject: ext.Subject, Fields: fields},
	}, true
}

func mentionedFields(text string) models.FieldSet {
	norm := normalize(text)
	norm = strings.ReplaceAll(norm, "image url", "image_url")
	return models.NewFieldSet(strings.Fields(norm)...)
}

func isFieldWord(s string) bool {
	_, ok := models.ParseRequestedField(s)
	return ok
}

func localMode(text string) models.ListMode {
	if countCue.MatchString(strings.ToLower(text)) {
		return models.ModeCount
	}
	return models.ModeList
}

func containsWord(text, word string) bool {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`).MatchString(text)
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '!', '?', '.', ',', ';', ':', '\'', '’':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
