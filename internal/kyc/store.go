package kyc

import (
	"context"
	"sync"
	"time"

	"afripay/internal/domain"
	"afripay/pkg/errors"

	"github.com/google/uuid"
)

// MemoryStore keeps verification records in memory. Reads return copies so a
// terminal record can never be mutated through a lookup.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.KYCVerification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*domain.KYCVerification)}
}

func (s *MemoryStore) Create(ctx context.Context, v *domain.KYCVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *v
	s.records[v.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.ErrVerificationNotFound
	}

	cp := *record
	if record.CompletedAt != nil {
		at := *record.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return false, errors.ErrVerificationNotFound
	}
	if record.Status.Terminal() {
		return false, nil
	}

	record.Status = status
	record.CompletedAt = &at
	return true, nil
}
