package repositories

import (
	"context"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/core/domain"
)

// PolicyFilter narrows policy listings. Zero values are ignored.
type PolicyFilter struct {
	UserID    uint
	Status    domain.PolicyStatus
	VehicleID string
}

// ClaimFilter narrows claim listings. Zero values are ignored.
type ClaimFilter struct {
	UserID       uint
	PolicyID     uint
	Status       domain.ClaimStatus
	Priority     domain.Priority
	IncidentType domain.IncidentType
}

// PolicyRepository defines policy repository interface.
// Missing records are reported as gorm.ErrRecordNotFound.
type PolicyRepository interface {
	Create(ctx context.Context, policy *models.Policy) error
	GetByID(ctx context.Context, id uint) (*models.Policy, error)
	ExistsByPolicyNumber(ctx context.Context, policyNumber string) (bool, error)
	// FindActiveForAsset returns the active, unexpired policy of userID on vehicleID, if any
	FindActiveForAsset(ctx context.Context, userID uint, vehicleID string, now time.Time) (*models.Policy, error)
	// FindActiveByVehicle returns the active policy covering vehicleID at now, if any
	FindActiveByVehicle(ctx context.Context, vehicleID string, now time.Time) (*models.Policy, error)
	List(ctx context.Context, filter PolicyFilter, offset, limit int) ([]*models.Policy, int64, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Policy, error)
	ListLapsed(ctx context.Context, now time.Time) ([]*models.Policy, error)
	Update(ctx context.Context, policy *models.Policy) error
	Delete(ctx context.Context, id uint) error
}

// ClaimRepository defines claim repository interface
type ClaimRepository interface {
	Create(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id uint) (*models.Claim, error)
	ExistsByClaimNumber(ctx context.Context, claimNumber string) (bool, error)
	HighestClaimSequence(ctx context.Context, year int) (int64, error)
	List(ctx context.Context, filter ClaimFilter, offset, limit int) ([]*models.Claim, int64, error)
	Update(ctx context.Context, claim *models.Claim) error
	Delete(ctx context.Context, id uint) error
}

// ClaimSequencer hands out monotonically increasing claim sequence values per year
type ClaimSequencer interface {
	Next(ctx context.Context, year int) (int64, error)
}

// AuditRepository defines audit trail repository interface
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.AuditEntry, error)
}
