package flashcards

import (
	"context"
	"fmt"
	"time"
)

// Service applies SM-2 scheduling on top of the store.
type Service struct {
	store Store
	sm2   *SM2
	now   func() time.Time
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, sm2: NewSM2(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithScheduler(sm *SM2) ServiceOption          { return func(s *Service) { s.sm2 = sm } }

// ReviewCard records one recall attempt and persists the rescheduled state.
func (s *Service) ReviewCard(ctx context.Context, userID, cardID string, quality Quality) (ReviewState, error) {
	if quality < QualityBlackout || quality > QualityPerfect {
		return ReviewState{}, fmt.Errorf("quality %d out of range 0..5", quality)
	}
	st, err := s.store.GetReviewState(ctx, userID, cardID)
	if err != nil {
		return ReviewState{}, err
	}
	s.sm2.Process(&st, quality, s.now())
	if err := s.store.PutReviewState(ctx, st); err != nil {
		return ReviewState{}, err
	}
	return st, nil
}

// Due returns the user's study queue for a deck.
func (s *Service) Due(ctx context.Context, userID, deckID string, limit int) ([]DueCard, error) {
	return s.store.DueCards(ctx, userID, deckID, s.now(), limit)
}
