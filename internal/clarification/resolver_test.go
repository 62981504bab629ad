package clarification_test

import (
	"context"
	"strings"
	"testing"

	"catalog-assistant/internal/catalog"
	"catalog-assistant/internal/catalog/catalogtest"
	"catalog-assistant/internal/clarification"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/models"
	"catalog-assistant/internal/oracle"
	"catalog-assistant/internal/oracle/oracletest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetCatalog() *catalogtest.Memory {
	return catalogtest.NewMemory(
		catalogtest.Product("p1", "Widget Red", "25.00", "10.00", 3),
		catalogtest.Product("p2", "Widget Blue", "27.00", "11.00", 8),
	)
}

func pendingWidgets() models.ConversationState {
	return models.NewConversationState().AwaitProduct([]models.ProductSummary{
		{ID: "p1", Title: "Widget Red"},
		{ID: "p2", Title: "Widget Blue"},
	}, "what is the price of the widget", models.FieldSet{models.FieldPrice})
}

func newResolver(t *testing.T, stub *oracletest.Stub, mem *catalogtest.Memory) *clarification.Resolver {
	t.Helper()
	log := logger.NewTestLogger(t)
	return clarification.NewResolver(oracle.NewExtractor(stub, log), mem, log)
}

func TestResolver_ProductRoundTrip(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Blue", "confidence": "high"})
	mem := widgetCatalog()

	res := newResolver(t, stub, mem).Continue(context.Background(), pendingWidgets(), "blue")

	require.Equal(t, clarification.OutcomeResolved, res.Outcome)
	assert.Equal(t, "p2", res.Resolution.Product.ID)
	require.NotNil(t, res.Resolution.Variant)
	assert.Equal(t, "27.00", res.Resolution.Variant.Price)
	assert.Equal(t, "what is the price of the widget", res.Resolution.Query)
	assert.Equal(t, models.FieldSet{models.FieldPrice}, res.Resolution.Fields)
	assert.True(t, res.State.IsIdle())
	assert.Equal(t, 1, mem.Calls("fetchDetails"))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Input, "- Widget Red\n- Widget Blue\n")
}

func TestResolver_AnythingButAStrictMatchResets(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*oracletest.Stub)
	}{
		{"medium confidence", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Blue", "confidence": "medium"})
		}},
		{"title not offered", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Green", "confidence": "high"})
		}},
		{"title differs in case", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": "widget blue", "confidence": "high"})
		}},
		{"title with trailing space", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Blue ", "confidence": "high"})
		}},
		{"null match", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": nil, "confidence": "high"})
		}},
		{"oracle unavailable", func(s *oracletest.Stub) {
			s.Fails(oracle.TaskMatch, oracle.ErrUnavailable)
		}},
		{"payload missing confidence", func(s *oracletest.Stub) {
			s.Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Blue"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := oracletest.New()
			tt.setup(stub)
			mem := widgetCatalog()

			res := newResolver(t, stub, mem).Continue(context.Background(), pendingWidgets(), "blue")

			assert.Equal(t, clarification.OutcomeFailed, res.Outcome)
			assert.True(t, res.State.IsIdle())
			assert.Empty(t, res.State.Candidates)
			assert.Empty(t, res.State.OriginalQuery)
			assert.Nil(t, res.State.PendingParent)
			assert.Equal(t, 0, mem.Calls(""))
		})
	}
}

func TestResolver_CatalogErrorResets(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Red", "confidence": "high"})
	mem := widgetCatalog()
	mem.Err = catalog.ErrUnavailable

	res := newResolver(t, stub, mem).Continue(context.Background(), pendingWidgets(), "the red one")

	assert.Equal(t, clarification.OutcomeFailed, res.Outcome)
	assert.True(t, res.State.IsIdle())
}

func tee() models.ProductRecord {
	small, large := 4, 0
	return models.ProductRecord{
		ID:    "p7",
		Title: "Logo Tee",
		Variants: []models.VariantRecord{
			{ID: "v-s", Title: "Small", Price: "19.00", Cost: "7.00", InventoryQuantity: &small},
			{ID: "v-l", Title: "Large", Price: "21.00", Cost: "8.00", InventoryQuantity: &large},
		},
	}
}

func TestResolver_ProductThenVariant(t *testing.T) {
	stub := oracletest.New().On(oracle.TaskMatch, func(input string) (map[string]interface{}, error) {
		switch {
		case strings.Contains(input, "- Logo Tee\n") && strings.HasSuffix(input, "Reply: the tee"):
			return map[string]interface{}{"match": "Logo Tee", "confidence": "high"}, nil
		case strings.HasSuffix(input, "Reply: large please"):
			return map[string]interface{}{"match": "Large", "confidence": "high"}, nil
		}
		return map[string]interface{}{"match": nil, "confidence": "low"}, nil
	})
	mem := catalogtest.NewMemory(tee(), catalogtest.Product("p8", "Logo Mug", "9.00", "3.00", 12))
	r := newResolver(t, stub, mem)

	state := models.NewConversationState().AwaitProduct([]models.ProductSummary{
		{ID: "p7", Title: "Logo Tee"},
		{ID: "p8", Title: "Logo Mug"},
	}, "how many logo items are in stock", models.FieldSet{models.FieldInventory})

	res := r.Continue(context.Background(), state, "the tee")
	require.Equal(t, clarification.OutcomeAwaitVariant, res.Outcome)
	assert.Equal(t, models.PhaseAwaitingVariantChoice, res.State.Phase())
	assert.Equal(t, []string{"Small", "Large"}, res.State.CandidateTitles())
	require.NotNil(t, res.State.PendingParent)
	assert.Equal(t, "p7", res.State.PendingParent.ID)
	assert.Equal(t, "how many logo items are in stock", res.State.OriginalQuery)
	assert.Equal(t, models.FieldSet{models.FieldInventory}, res.State.OriginalFields)

	res = r.Continue(context.Background(), res.State, "large please")
	require.Equal(t, clarification.OutcomeResolved, res.Outcome)
	assert.Equal(t, "v-l", res.Resolution.Variant.ID)
	assert.Equal(t, "how many logo items are in stock", res.Resolution.Query)
	assert.True(t, res.State.IsIdle())
}

func TestResolver_ProductAndVariantInOneReply(t *testing.T) {
	stub := oracletest.New().On(oracle.TaskMatch, func(input string) (map[string]interface{}, error) {
		if strings.Contains(input, "- Small\n") {
			return map[string]interface{}{"match": "Small", "confidence": "high"}, nil
		}
		return map[string]interface{}{"match": "Logo Tee", "confidence": "high"}, nil
	})
	mem := catalogtest.NewMemory(tee())

	state := models.NewConversationState().AwaitProduct([]models.ProductSummary{
		{ID: "p7", Title: "Logo Tee"},
		{ID: "p8", Title: "Logo Mug"},
	}, "price of logo", models.FieldSet{models.FieldPrice})

	res := newResolver(t, stub, mem).Continue(context.Background(), state, "small tee")
	require.Equal(t, clarification.OutcomeResolved, res.Outcome)
	assert.Equal(t, "v-s", res.Resolution.Variant.ID)
	assert.Equal(t, 2, stub.CallCount(oracle.TaskMatch))
}

func TestResolver_VariantMissResets(t *testing.T) {
	stub := oracletest.New().
		Returns(oracle.TaskMatch, map[string]interface{}{"match": "Medium", "confidence": "high"})
	parent := tee()
	state := models.NewConversationState().AwaitVariant(&parent, "price of logo tee", models.FieldSet{models.FieldPrice})

	res := newResolver(t, stub, catalogtest.NewMemory()).Continue(context.Background(), state, "medium")

	assert.Equal(t, clarification.OutcomeFailed, res.Outcome)
	assert.True(t, res.State.IsIdle())
}

func TestResolver_IdleStateIsNotPending(t *testing.T) {
	stub := oracletest.New()
	res := newResolver(t, stub, catalogtest.NewMemory()).Continue(context.Background(), models.NewConversationState(), "blue")

	assert.Equal(t, clarification.OutcomeFailed, res.Outcome)
	assert.Empty(t, stub.Calls())
}
