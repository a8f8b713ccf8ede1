package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// ClaimStore implements repositories.ClaimRepository in memory
type ClaimStore struct {
	mu     sync.RWMutex
	nextID uint
	claims map[uint]*models.Claim
}

// NewClaimStore creates an empty claim store
func NewClaimStore() *ClaimStore {
	return &ClaimStore{
		nextID: 1,
		claims: make(map[uint]*models.Claim),
	}
}

var _ repositories.ClaimRepository = (*ClaimStore)(nil)

func (s *ClaimStore) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.claims {
		if c.ClaimNumber == claim.ClaimNumber {
			return gorm.ErrDuplicatedKey
		}
	}

	now := time.Now()
	claim.ID = s.nextID
	s.nextID++
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = now
	}
	claim.UpdatedAt = now

	s.claims[claim.ID] = cloneClaim(claim)
	return nil
}

func (s *ClaimStore) GetByID(_ context.Context, id uint) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.claims[id]
	if !ok || c.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneClaim(c), nil
}

func (s *ClaimStore) ExistsByClaimNumber(_ context.Context, claimNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.claims {
		if c.ClaimNumber == claimNumber {
			return true, nil
		}
	}
	return false, nil
}

func (s *ClaimStore) HighestClaimSequence(_ context.Context, year int) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := models.ClaimNumberYearPrefix(year)
	var highest int64
	for _, c := range s.claims {
		digits, ok := strings.CutPrefix(c.ClaimNumber, prefix)
		if !ok || len(digits) != 6 {
			continue
		}
		if seq, err := strconv.ParseInt(digits, 10, 64); err == nil && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func (s *ClaimStore) List(_ context.Context, filter repositories.ClaimFilter, offset, limit int) ([]*models.Claim, int64, error) {
	s.mu.RLock()
	var matched []*models.Claim
	for _, c := range s.claims {
		if c.DeletedAt.Valid {
			continue
		}
		if filter.UserID != 0 && c.UserID != filter.UserID {
			continue
		}
		if filter.PolicyID != 0 && c.PolicyID != filter.PolicyID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && c.Priority != filter.Priority {
			continue
		}
		if filter.IncidentType != "" && c.IncidentType != filter.IncidentType {
			continue
		}
		matched = append(matched, cloneClaim(c))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, offset, limit), int64(len(matched)), nil
}

func (s *ClaimStore) Update(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.claims[claim.ID]
	if !ok || existing.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}

	claim.UpdatedAt = time.Now()
	s.claims[claim.ID] = cloneClaim(claim)
	return nil
}

func (s *ClaimStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.claims[id]
	if !ok || c.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	c.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func cloneClaim(c *models.Claim) *models.Claim {
	out := *c
	if c.InvolvedParties != nil {
		out.InvolvedParties = append(out.InvolvedParties[:0:0], c.InvolvedParties...)
	}
	if c.Fraud.Flags != nil {
		out.Fraud.Flags = append(out.Fraud.Flags[:0:0], c.Fraud.Flags...)
	}
	return &out
}
