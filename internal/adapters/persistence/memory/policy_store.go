// Package memory holds in-memory implementations of the repository interfaces.
// They back the memory database driver and the service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/adapters/persistence/repositories"
	"assurance-claims/internal/core/domain"

	"gorm.io/gorm"
)

// PolicyStore implements repositories.PolicyRepository in memory
type PolicyStore struct {
	mu       sync.RWMutex
	nextID   uint
	policies map[uint]*models.Policy
}

// NewPolicyStore creates an empty policy store
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{
		nextID:   1,
		policies: make(map[uint]*models.Policy),
	}
}

var _ repositories.PolicyRepository = (*PolicyStore)(nil)

func (s *PolicyStore) Create(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.policies {
		if p.PolicyNumber == policy.PolicyNumber {
			return gorm.ErrDuplicatedKey
		}
	}

	now := time.Now()
	policy.ID = s.nextID
	s.nextID++
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}
	policy.UpdatedAt = now

	s.policies[policy.ID] = clonePolicy(policy)
	return nil
}

func (s *PolicyStore) GetByID(_ context.Context, id uint) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.policies[id]
	if !ok || p.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return clonePolicy(p), nil
}

func (s *PolicyStore) ExistsByPolicyNumber(_ context.Context, policyNumber string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.policies {
		if p.PolicyNumber == policyNumber {
			return true, nil
		}
	}
	return false, nil
}

func (s *PolicyStore) FindActiveForAsset(_ context.Context, userID uint, vehicleID string, now time.Time) (*models.Policy, error) {
	return s.findFirst(func(p *models.Policy) bool {
		return p.UserID == userID &&
			p.VehicleID != nil && *p.VehicleID == vehicleID &&
			p.Status == domain.PolicyActive &&
			!p.EndDate.Before(now)
	})
}

func (s *PolicyStore) FindActiveByVehicle(_ context.Context, vehicleID string, now time.Time) (*models.Policy, error) {
	return s.findFirst(func(p *models.Policy) bool {
		return p.VehicleID != nil && *p.VehicleID == vehicleID && p.IsActive(now)
	})
}

func (s *PolicyStore) List(_ context.Context, filter repositories.PolicyFilter, offset, limit int) ([]*models.Policy, int64, error) {
	matched := s.filter(func(p *models.Policy) bool {
		if filter.UserID != 0 && p.UserID != filter.UserID {
			return false
		}
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		if filter.VehicleID != "" && (p.VehicleID == nil || *p.VehicleID != filter.VehicleID) {
			return false
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return page(matched, offset, limit), int64(len(matched)), nil
}

func (s *PolicyStore) ListExpiring(_ context.Context, from, to time.Time) ([]*models.Policy, error) {
	matched := s.filter(func(p *models.Policy) bool {
		return p.Status == domain.PolicyActive && !p.EndDate.Before(from) && !p.EndDate.After(to)
	})
	sortByEndDate(matched)
	return matched, nil
}

func (s *PolicyStore) ListLapsed(_ context.Context, now time.Time) ([]*models.Policy, error) {
	matched := s.filter(func(p *models.Policy) bool {
		return domain.IsPolicyLapsed(p.Status, p.EndDate, now)
	})
	sortByEndDate(matched)
	return matched, nil
}

func (s *PolicyStore) Update(_ context.Context, policy *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.policies[policy.ID]
	if !ok || existing.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}

	policy.UpdatedAt = time.Now()
	s.policies[policy.ID] = clonePolicy(policy)
	return nil
}

func (s *PolicyStore) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.policies[id]
	if !ok || p.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (s *PolicyStore) findFirst(match func(*models.Policy) bool) (*models.Policy, error) {
	matched := s.filter(match)
	if len(matched) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].EndDate.After(matched[j].EndDate)
	})
	return matched[0], nil
}

// filter returns copies of the live policies accepted by match
func (s *PolicyStore) filter(match func(*models.Policy) bool) []*models.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Policy
	for _, p := range s.policies {
		if p.DeletedAt.Valid || !match(p) {
			continue
		}
		out = append(out, clonePolicy(p))
	}
	return out
}

func sortByEndDate(policies []*models.Policy) {
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].EndDate.Before(policies[j].EndDate)
	})
}

func clonePolicy(p *models.Policy) *models.Policy {
	c := *p
	return &c
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
