package memory

import (
	"context"
	"sync"

	domain "github.com/storefront-labs/checkout/internal/domain/challenge"
)

// ChallengeStore keeps challenges for the process lifetime only; a restart
// loses all in-flight codes.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]domain.Challenge
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[string]domain.Challenge),
	}
}

func (s *ChallengeStore) Put(ctx context.Context, ch domain.Challenge) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	// Last writer wins: reissuing intentionally invalidates the prior code.
	s.challenges[ch.OrderID] = ch
	return nil
}

func (s *ChallengeStore) Get(ctx context.Context, orderID string) (domain.Challenge, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[orderID]
	if !ok {
		return domain.Challenge{}, domain.ErrNoChallenge
	}
	return ch, nil
}

// CompareAndDelete removes the entry only when its code matches, under one
// lock acquisition, so concurrent consumers cannot both observe a delete.
func (s *ChallengeStore) CompareAndDelete(ctx context.Context, orderID, code string) (bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[orderID]
	if !ok || ch.Code != code {
		return false, nil
	}
	delete(s.challenges, orderID)
	return true, nil
}
