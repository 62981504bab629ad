package router_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "catalog-assistant/internal/common/errors"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/models"
	"catalog-assistant/internal/oracle"
	"catalog-assistant/internal/router"
	"catalog-assistant/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	loadErr error
	saveErr error
}

func (b *brokenStore) Load(context.Context, string) (models.ConversationState, error) {
	return models.NewConversationState(), b.loadErr
}

func (b *brokenStore) Save(context.Context, string, models.ConversationState) error {
	return b.saveErr
}

func (b *brokenStore) Delete(context.Context, string) error { return nil }

func TestService_StatePerSession(t *testing.T) {
	f := newFixture(t, widgets()...)
	f.single("widget", "price")
	f.stub.Returns(oracle.TaskMatch, map[string]interface{}{"match": "Widget Blue", "confidence": "high"})

	svc := router.NewService(f.router, session.NewMemoryStore(time.Minute), logger.NewTestLogger(t))
	ctx := context.Background()

	resp, err := svc.Handle(ctx, "alice", "what is the price of the widget")
	require.NoError(t, err)
	assert.True(t, resp.AwaitingClarification)
	assert.Equal(t, "alice", resp.SessionID)

	other, err := svc.Handle(ctx, "bob", "hello")
	require.NoError(t, err)
	assert.False(t, other.AwaitingClarification)
	assert.Equal(t, "chitchat", other.Intent)

	resp, err = svc.Handle(ctx, "alice", "blue")
	require.NoError(t, err)
	assert.False(t, resp.AwaitingClarification)
	assert.Equal(t, "Here are the details for Widget Blue:\n- Price: $27.00", resp.Response)
}

func TestService_Reset(t *testing.T) {
	f := newFixture(t, widgets()...)
	f.single("widget", "price")

	store := session.NewMemoryStore(time.Minute)
	svc := router.NewService(f.router, store, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := svc.Handle(ctx, "s1", "price of widget")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "s1"))

	state, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, state.IsIdle())
}

func TestService_StoreFailures(t *testing.T) {
	tests := []struct {
		name  string
		store *brokenStore
	}{
		{"load", &brokenStore{loadErr: errors.New("redis down")}},
		{"save", &brokenStore{saveErr: errors.New("redis down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := router.NewService(f.router, tt.store, logger.NewTestLogger(t))

			_, err := svc.Handle(context.Background(), "s1", "hello")
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, apperrors.ErrCodeSessionStoreFailed, stdErr.Code)
		})
	}
}

func TestService_ConcurrentSessions(t *testing.T) {
	f := newFixture(t)
	svc := router.NewService(f.router, session.NewMemoryStore(time.Minute), logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				resp, err := svc.Handle(context.Background(), []string{"a", "b"}[id%2], "thanks")
				assert.NoError(t, err)
				assert.Equal(t, "chitchat", resp.Intent)
			}
		}(i)
	}
	wg.Wait()
}
