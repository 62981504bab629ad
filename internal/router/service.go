package router

import (
	"context"

	apperrors "catalog-assistant/internal/common/errors"
	"catalog-assistant/internal/models"
	"catalog-assistant/internal/session"
)

// Service runs turns for many sessions. Turns of one session run one at a
// time; different sessions proceed independently.
type Service struct {
	router *Router
	store  session.Store
	locks  *session.KeyedLock
	logger Logger
}

func NewService(r *Router, store session.Store, log Logger) *Service {
	return &Service{router: r, store: store, locks: session.NewKeyedLock(), logger: log}
}

// Handle answers one utterance for sessionID. The only error is a session
// store failure, returned as a StandardError.
func (s *Service) Handle(ctx context.Context, sessionID, utterance string) (models.ChatResponse, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load session", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return models.ChatResponse{}, apperrors.NewSessionStoreError(sessionID, err)
	}

	reply, next := s.router.Respond(ctx, state, utterance)

	if err := s.store.Save(ctx, sessionID, next); err != nil {
		s.logger.Error("failed to save session", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return models.ChatResponse{}, apperrors.NewSessionStoreError(sessionID, err)
	}

	return models.ChatResponse{
		SessionID:             sessionID,
		Response:              reply.Text,
		Intent:                string(reply.Intent),
		AwaitingClarification: next.AwaitingClarification,
	}, nil
}

// Reset drops any pending clarification for sessionID.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperrors.NewSessionStoreError(sessionID, err)
	}
	return nil
}
