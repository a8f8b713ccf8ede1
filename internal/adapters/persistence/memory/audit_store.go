package memory

import (
	"context"
	"sync"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
)

// AuditStore implements repositories.AuditRepository in memory
type AuditStore struct {
	mu      sync.RWMutex
	nextID  uint
	entries []*models.AuditEntry
}

func NewAuditStore() *AuditStore {
	return &AuditStore{nextID: 1}
}

var _ repositories.AuditRepository = (*AuditStore)(nil)

func (s *AuditStore) Create(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	c := *entry
	s.entries = append(s.entries, &c)
	return nil
}

// ListByEntity returns the history newest first
func (s *AuditStore) ListByEntity(_ context.Context, entityType string, entityID uint) ([]*models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.AuditEntry{}
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// ClaimSequencer implements repositories.ClaimSequencer with a per-year counter
type ClaimSequencer struct {
	mu     sync.Mutex
	counts map[int]int64
}

func NewClaimSequencer() *ClaimSequencer {
	return &ClaimSequencer{counts: make(map[int]int64)}
}

var _ repositories.ClaimSequencer = (*ClaimSequencer)(nil)

func (s *ClaimSequencer) Next(_ context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[year]++
	return s.counts[year], nil
}
