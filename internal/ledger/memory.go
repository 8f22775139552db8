package ledger

import (
	"context"
	"sort"
	"sync"

	"afripay/internal/domain"
	"afripay/pkg/errors"

	"github.com/google/uuid"
)

// MemoryRepository is the default, process-local transaction store. Writes to
// a given id are serialized through a per-id lock; reads return clones so
// terminal records stay immutable from the outside.
type MemoryRepository struct {
	mu    sync.RWMutex
	txs   map[uuid.UUID]*domain.Transaction
	locks map[uuid.UUID]*sync.Mutex
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		txs:   make(map[uuid.UUID]*domain.Transaction),
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.txs[tx.ID]; exists {
		return errors.ErrTransactionAlreadyExists
	}
	r.txs[tx.ID] = tx.Clone()
	r.locks[tx.ID] = &sync.Mutex{}
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.txs[id]
	if !ok {
		return nil, errors.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (r *MemoryRepository) FindByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tx := range r.txs {
		if tx.Reference == ref {
			return tx.Clone(), nil
		}
	}
	return nil, errors.ErrTransactionNotFound
}

func (r *MemoryRepository) FindByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Transaction, 0)
	for _, tx := range r.txs {
		if tx.Status == status {
			matched = append(matched, tx)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*domain.Transaction{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]*domain.Transaction, 0, end-offset)
	for _, tx := range matched[offset:end] {
		page = append(page, tx.Clone())
	}
	return page, nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context, status domain.TransactionStatus) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, tx := range r.txs {
		if tx.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(tx *domain.Transaction) error) error {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return errors.ErrTransactionNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	tx := r.txs[id]
	r.mu.RUnlock()

	working := tx.Clone()
	if err := fn(working); err != nil {
		return err
	}

	r.mu.Lock()
	r.txs[id] = working
	r.mu.Unlock()
	return nil
}
