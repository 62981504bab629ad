// Package classifier maps one utterance to exactly one intent by running an
// ordered list of detectors and stopping at the first that fires.
package classifier

import (
	"context"
	"strings"

	"catalog-assistant/internal/models"
	"catalog-assistant/internal/oracle"
)

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Extractor is the oracle surface the detectors use.
type Extractor interface {
	Date(ctx context.Context, text string) (oracle.DateExtraction, error)
	StatusCategory(ctx context.Context, text string) (oracle.StatusCategoryExtraction, error)
	Comparison(ctx context.Context, text string) (oracle.ComparisonExtraction, error)
	SingleProduct(ctx context.Context, text string) (oracle.SingleExtraction, error)
}

// Replier resolves canned chit-chat replies.
type Replier interface {
	Lookup(text string) string
}

// Stage is one detector in the cascade. Detect reports whether it fired.
type Stage struct {
	Name   string
	Detect func(ctx context.Context, text string) (models.Intent, bool)
}

type Options struct {
	// Categories are matched as whole words when the text quotes no category.
	Categories []string
}

// DefaultCategories are the common category names recognised without quotes.
var DefaultCategories = []string{
	"t-shirts", "shirts", "hoodies", "jackets", "pants", "jeans", "shoes", "sneakers",
	"hats", "bags", "accessories", "jewelry", "furniture", "chairs", "tables", "lighting",
	"electronics", "snowboards", "skis",
}

type Classifier struct {
	stages []Stage
	logger Logger
}

// New builds the standard cascade:
// chitchat, date, status/category, comparison, single product.
func New(ext Extractor, replies Replier, opts Options, log Logger) *Classifier {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	d := &detectors{ext: ext, replies: replies, categories: categories, logger: log}
	return NewWithStages(log,
		Stage{Name: "chitchat", Detect: d.chitchat},
		Stage{Name: "date", Detect: d.date},
		Stage{Name: "status_category", Detect: d.statusCategory},
		Stage{Name: "comparison", Detect: d.comparison},
		Stage{Name: "single_product", Detect: d.singleProduct},
	)
}

// NewWithStages builds a classifier over an explicit stage order.
func NewWithStages(log Logger, stages ...Stage) *Classifier {
	return &Classifier{stages: stages, logger: log}
}

// StageNames returns the cascade order.
func (c *Classifier) StageNames() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Classify returns the intent of the first stage that fires, or Unrecognized.
func (c *Classifier) Classify(ctx context.Context, text string) models.Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Unrecognized()
	}

	for _, stage := range c.stages {
		intent, ok := stage.Detect(ctx, text)
		if !ok {
			c.logger.Debug("stage did not fire", map[string]interface{}{"stage": stage.Name})
			continue
		}
		c.logger.Debug("stage fired", map[string]interface{}{
			"stage":  stage.Name,
			"intent": string(intent.Kind),
		})
		return intent
	}
	return models.Unrecognized()
}
