package repositories

import (
	"context"
	"time"

	"assurance-claims/internal/adapters/persistence/models"
	"assurance-claims/internal/core/domain"

	"gorm.io/gorm"
)

// GormPolicyRepository handles policy data access
type GormPolicyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *gorm.DB) *GormPolicyRepository {
	return &GormPolicyRepository{db: db}
}

// Create creates a new policy
func (r *GormPolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	return r.db.WithContext(ctx).Create(policy).Error
}

// GetByID gets a policy by ID
func (r *GormPolicyRepository) GetByID(ctx context.Context, id uint) (*models.Policy, error) {
	var policy models.Policy
	err := r.db.WithContext(ctx).First(&policy, id).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ExistsByPolicyNumber checks if a policy number is taken, including deleted policies
func (r *GormPolicyRepository) ExistsByPolicyNumber(ctx context.Context, policyNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Policy{}).
		Where("policy_number = ?", policyNumber).
		Count(&count).Error
	return count > 0, err
}

// FindActiveForAsset finds the active, unexpired policy of an owner on a vehicle
func (r *GormPolicyRepository) FindActiveForAsset(ctx context.Context, userID uint, vehicleID string, now time.Time) (*models.Policy, error) {
	var policy models.Policy
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND vehicle_id = ? AND status = ? AND end_date >= ?", userID, vehicleID, domain.PolicyActive, now).
		Order("end_date DESC").
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// FindActiveByVehicle finds the policy currently covering a vehicle
func (r *GormPolicyRepository) FindActiveByVehicle(ctx context.Context, vehicleID string, now time.Time) (*models.Policy, error) {
	var policy models.Policy
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ? AND start_date <= ? AND end_date >= ?", vehicleID, domain.PolicyActive, now, now).
		Order("end_date DESC").
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// List lists policies with filter and pagination, newest first
func (r *GormPolicyRepository) List(ctx context.Context, filter PolicyFilter, offset, limit int) ([]*models.Policy, int64, error) {
	var policies []*models.Policy
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Policy{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).Scopes(filter.scope).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&policies).Error

	return policies, total, err
}

func (f PolicyFilter) scope(db *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.VehicleID != "" {
		db = db.Where("vehicle_id = ?", f.VehicleID)
	}
	return db
}

// ListExpiring lists active policies whose end date falls in [from, to]
func (r *GormPolicyRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.Policy, error) {
	var policies []*models.Policy
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date >= ? AND end_date <= ?", domain.PolicyActive, from, to).
		Order("end_date ASC").
		Find(&policies).Error
	return policies, err
}

// ListLapsed lists active policies whose end date is before now
func (r *GormPolicyRepository) ListLapsed(ctx context.Context, now time.Time) ([]*models.Policy, error) {
	var policies []*models.Policy
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", domain.PolicyActive, now).
		Order("end_date ASC").
		Find(&policies).Error
	return policies, err
}

// Update updates a policy
func (r *GormPolicyRepository) Update(ctx context.Context, policy *models.Policy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}

// Delete soft deletes a policy
func (r *GormPolicyRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Policy{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
