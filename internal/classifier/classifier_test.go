package classifier_test

import (
	"context"
	"testing"
	"time"

	"catalog-assistant/internal/classifier"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/models"
	"catalog-assistant/internal/oracle"
	"catalog-assistant/internal/oracle/oracletest"
	"catalog-assistant/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T, stub *oracletest.Stub) *classifier.Classifier {
	t.Helper()
	log := logger.NewTestLogger(t)
	return classifier.New(oracle.NewExtractor(stub, log), registry.Default(), classifier.Options{}, log)
}

func TestClassifier_StageOrder(t *testing.T) {
	c := newClassifier(t, oracletest.New())
	assert.Equal(t,
		[]string{"chitchat", "date", "status_category", "comparison", "single_product"},
		c.StageNames())
}

func TestClassifier_Chitchat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		reply string
	}{
		{"greeting", "Hello!", "Hello! Ask me about any product's price, stock, margin or dimensions."},
		{"thanks", "thank you so much", "You're welcome! Anything else you'd like to know about the catalog?"},
		{"farewell", "bye", "Goodbye! Come back any time you need product details."},
		{"short without product words", "ok cool", registry.Default().Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := oracletest.New()
			c := newClassifier(t, stub)

			intent := c.Classify(context.Background(), tt.input)
			assert.Equal(t, models.IntentChitchat, intent.Kind)
			assert.Equal(t, tt.reply, intent.Reply)
			assert.Empty(t, stub.Calls())
		})
	}
}

func TestClassifier_ShortProductTextIsNotChitchat(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
		Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": "ALPHA-1", "fields": []interface{}{"price"}})
	c := newClassifier(t, stub)

	intent := c.Classify(context.Background(), "ALPHA-1")
	require.Equal(t, models.IntentSingleProduct, intent.Kind)
	assert.Equal(t, "ALPHA-1", intent.Single.Subject)
}

func TestClassifier_EmptyInput(t *testing.T) {
	stub := oracletest.New()
	intent := newClassifier(t, stub).Classify(context.Background(), "   ")
	assert.Equal(t, models.IntentUnrecognized, intent.Kind)
	assert.Empty(t, stub.Calls())
}

func TestClassifier_DateWinsOverComparison(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskDate, map[string]interface{}{"condition": "after", "date": "2024-01-01"}).
		Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": true, "subject1": "shirts", "subject2": "hats"})
	c := newClassifier(t, stub)

	intent := c.Classify(context.Background(), "compare shirts and hats created after January 1st 2024")
	require.Equal(t, models.IntentDate, intent.Kind)
	assert.Equal(t, models.DateAfter, intent.Date.Condition)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), intent.Date.Date)
	assert.Equal(t, models.ModeList, intent.Date.Mode)
	assert.Equal(t, 0, stub.CallCount(oracle.TaskComparison))
}

func TestClassifier_DateModeFromText(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskDate, map[string]interface{}{"condition": "before", "date": "2023-06-30"})
	intent := newClassifier(t, stub).Classify(context.Background(), "how many products were created before June 30 2023?")

	require.Equal(t, models.IntentDate, intent.Kind)
	assert.Equal(t, models.ModeCount, intent.Date.Mode)
}

func TestClassifier_DateFailureFallsThrough(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskDate, map[string]interface{}{"condition": "on", "date": "someday"}).
		Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
		Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": nil})

	intent := newClassifier(t, stub).Classify(context.Background(), "what did we add after the summer sale")
	assert.Equal(t, models.IntentUnrecognized, intent.Kind)
	assert.Equal(t, 1, stub.CallCount(oracle.TaskDate))
}

func TestClassifier_StatusCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		status   models.ProductStatus
		category string
		mode     models.ListMode
	}{
		{"unpublished is draft", "list unpublished products", models.StatusDraft, "", models.ModeList},
		{"published is active", "how many published products do we have", models.StatusActive, "", models.ModeCount},
		{"archived with category", "show archived snowboards", models.StatusArchived, "snowboards", models.ModeList},
		{"quoted category", `count products in category "Summer Collection"`, "", "Summer Collection", models.ModeCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := oracletest.New()
			intent := newClassifier(t, stub).Classify(context.Background(), tt.input)

			require.Equal(t, models.IntentStatusCategory, intent.Kind)
			q := intent.StatusCategory
			if tt.status == "" {
				assert.Nil(t, q.Status)
			} else {
				require.NotNil(t, q.Status)
				assert.Equal(t, tt.status, *q.Status)
			}
			assert.Equal(t, tt.category, q.Category)
			assert.Equal(t, tt.mode, q.Mode)
			assert.Empty(t, stub.Calls())
		})
	}
}

func TestClassifier_StatusCategoryOracleFillsOnlyMissingField(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskStatusCategory, map[string]interface{}{"status": "ARCHIVED", "category": "Lamps"})
	intent := newClassifier(t, stub).Classify(context.Background(), "which draft items are in the lighting category")

	require.Equal(t, models.IntentStatusCategory, intent.Kind)
	require.NotNil(t, intent.StatusCategory.Status)
	assert.Equal(t, models.StatusDraft, *intent.StatusCategory.Status)
	assert.Equal(t, "lighting", intent.StatusCategory.Category)
	assert.Equal(t, 0, stub.CallCount(oracle.TaskStatusCategory))

	stub = oracletest.New().
		Returns(oracle.TaskStatusCategory, map[string]interface{}{"status": "ARCHIVED", "category": "Lamps"})
	intent = newClassifier(t, stub).Classify(context.Background(), "draft products of the desk lamp type")

	require.Equal(t, models.IntentStatusCategory, intent.Kind)
	assert.Equal(t, models.StatusDraft, *intent.StatusCategory.Status)
	assert.Equal(t, "Lamps", intent.StatusCategory.Category)
	assert.Equal(t, 1, stub.CallCount(oracle.TaskStatusCategory))
}

func TestClassifier_ComparisonFromOracle(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskComparison, map[string]interface{}{
			"is_comparison": true,
			"subject1":      "Widget Red",
			"subject2":      "Widget Blue",
			"fields":        []interface{}{"margin"},
		})
	intent := newClassifier(t, stub).Classify(context.Background(), "which has the better margin, Widget Red or Widget Blue")

	require.Equal(t, models.IntentComparison, intent.Kind)
	assert.Equal(t, "Widget Red", intent.Comparison.Subject1)
	assert.Equal(t, "Widget Blue", intent.Comparison.Subject2)
	assert.Equal(t, models.FieldSet{models.FieldMargin}, intent.Comparison.Fields)
	assert.Equal(t, 0, stub.CallCount(oracle.TaskSingleProduct))
}

func TestClassifier_ComparisonPatternFallback(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		s1, s2 string
		fields models.FieldSet
	}{
		{
			name:   "versus defaults",
			input:  "ALPHA-1 vs BETA-2",
			s1:     "ALPHA-1",
			s2:     "BETA-2",
			fields: models.FieldSet{models.FieldPrice, models.FieldCost, models.FieldInventory},
		},
		{
			name:   "financial defaults",
			input:  "compare profit for ALPHA-1 and BETA-2",
			s1:     "ALPHA-1",
			s2:     "BETA-2",
			fields: models.FieldSet{models.FieldPrice, models.FieldCost, models.FieldProfit, models.FieldMargin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := oracletest.New().Fails(oracle.TaskComparison, oracle.ErrUnavailable)
			intent := newClassifier(t, stub).Classify(context.Background(), tt.input)

			require.Equal(t, models.IntentComparison, intent.Kind)
			assert.Equal(t, tt.s1, intent.Comparison.Subject1)
			assert.Equal(t, tt.s2, intent.Comparison.Subject2)
			assert.Equal(t, tt.fields, intent.Comparison.Fields)
		})
	}
}

func TestClassifier_ComparisonPatternRejectsFieldNames(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
		Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": "Widget Blue", "fields": []interface{}{"price", "cost"}})
	intent := newClassifier(t, stub).Classify(context.Background(), "what is the price and cost of Widget Blue")

	require.Equal(t, models.IntentSingleProduct, intent.Kind)
	assert.Equal(t, "Widget Blue", intent.Single.Subject)
	assert.Equal(t, models.FieldSet{models.FieldPrice, models.FieldCost}, intent.Single.Fields)
}

func TestClassifier_SingleProduct(t *testing.T) {
	t.Run("fields from text when oracle omits them", func(t *testing.T) {
		stub := oracletest.New().
			Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
			Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": "Widget Blue"})
		intent := newClassifier(t, stub).Classify(context.Background(), "what's the markup on Widget Blue?")

		require.Equal(t, models.IntentSingleProduct, intent.Kind)
		assert.Equal(t, models.FieldSet{models.FieldMarkup}, intent.Single.Fields)
	})

	t.Run("default fields", func(t *testing.T) {
		stub := oracletest.New().
			Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
			Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": "Widget Blue"})
		intent := newClassifier(t, stub).Classify(context.Background(), "tell me about the Widget Blue please")

		require.Equal(t, models.IntentSingleProduct, intent.Kind)
		assert.Equal(t, models.FieldSet{models.FieldPrice, models.FieldInventory}, intent.Single.Fields)
	})

	t.Run("no subject is unrecognized", func(t *testing.T) {
		stub := oracletest.New().
			Returns(oracle.TaskComparison, map[string]interface{}{"is_comparison": false}).
			Returns(oracle.TaskSingleProduct, map[string]interface{}{"subject": nil})
		intent := newClassifier(t, stub).Classify(context.Background(), "what is the weather like in Paris today")

		assert.Equal(t, models.IntentUnrecognized, intent.Kind)
	})

	t.Run("oracle down is unrecognized", func(t *testing.T) {
		stub := oracletest.New()
		intent := newClassifier(t, stub).Classify(context.Background(), "tell me about the Widget Blue please")

		assert.Equal(t, models.IntentUnrecognized, intent.Kind)
	})
}

func TestNewWithStages_FirstFiringStageWins(t *testing.T) {
	var order []string
	stage := func(name string, fires bool) classifier.Stage {
		return classifier.Stage{Name: name, Detect: func(context.Context, string) (models.Intent, bool) {
			order = append(order, name)
			return models.Intent{Kind: models.IntentKind(name)}, fires
		}}
	}

	c := classifier.NewWithStages(logger.NewNoOpLogger(), stage("a", false), stage("b", true), stage("c", true))
	intent := c.Classify(context.Background(), "anything")

	assert.Equal(t, models.IntentKind("b"), intent.Kind)
	assert.Equal(t, []string{"a", "b"}, order)
}
