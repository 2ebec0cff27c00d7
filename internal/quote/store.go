package quote

import (
	"context"
	"sync"
	"time"

	"github.com/merxpay/merx/internal/models"
)

// Store holds ephemeral quotes between issuance and checkout.
//
// TakeIfValid is the contract's hot spot: a quote is handed to at most one
// caller and removed in the same step. Callers racing on the same id see
// exactly one success; the rest get ErrQuoteNotFound. An expired quote is
// reported as ErrQuoteExpired even if the sweep never ran.
type Store interface {
	Put(ctx context.Context, q *models.Quote) error
	TakeIfValid(ctx context.Context, id string) (*models.Quote, error)
	// Sweep removes all quotes expired at the given instant and returns how
	// many were dropped.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// MemoryStore is the in-process Store backing for single-instance
// deployments. Multi-instance deployments use the Redis backing instead.
type MemoryStore struct {
	mu     sync.Mutex
	quotes map[string]*models.Quote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string]*models.Quote)}
}

func (s *MemoryStore) Put(_ context.Context, q *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[q.ID] = q
	return nil
}

func (s *MemoryStore) TakeIfValid(_ context.Context, id string) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.quotes[id]
	if !ok {
		return nil, models.ErrQuoteNotFound
	}
	// Removed in the same critical section as the lookup, so a second taker
	// of the same id cannot observe the quote.
	delete(s.quotes, id)

	if q.Expired(time.Now()) {
		return nil, models.ErrQuoteExpired
	}
	return q, nil
}

func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, q := range s.quotes {
		if q.Expired(now) {
			delete(s.quotes, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored quotes. Used in tests and sweep logging.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.quotes)
}
