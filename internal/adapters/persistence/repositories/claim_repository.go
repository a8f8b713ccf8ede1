package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"assurance-claims/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormClaimRepository handles claim data access
type GormClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// Create creates a new claim
func (r *GormClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// GetByID gets a claim by ID
func (r *GormClaimRepository) GetByID(ctx context.Context, id uint) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).First(&claim, id).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ExistsByClaimNumber checks if a claim number is taken, including deleted claims
func (r *GormClaimRepository) ExistsByClaimNumber(ctx context.Context, claimNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Claim{}).
		Where("claim_number = ?", claimNumber).
		Count(&count).Error
	return count > 0, err
}

// HighestClaimSequence returns the largest generated sequence stored for year, 0 when none.
// Deleted claims count since their numbers stay reserved.
func (r *GormClaimRepository) HighestClaimSequence(ctx context.Context, year int) (int64, error) {
	prefix := models.ClaimNumberYearPrefix(year)

	var latest string
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Claim{}).
		Select("COALESCE(MAX(claim_number), '')").
		Where("claim_number LIKE ?", prefix+"______").
		Scan(&latest).Error
	if err != nil || latest == "" {
		return 0, err
	}

	seq, err := strconv.ParseInt(strings.TrimPrefix(latest, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse claim number %q: %w", latest, err)
	}
	return seq, nil
}

// List lists claims with filter and pagination, newest first
func (r *GormClaimRepository) List(ctx context.Context, filter ClaimFilter, offset, limit int) ([]*models.Claim, int64, error) {
	var claims []*models.Claim
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Claim{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).Scopes(filter.scope).Order("created_at DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	err := q.Find(&claims).Error

	return claims, total, err
}

func (f ClaimFilter) scope(db *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.PolicyID != 0 {
		db = db.Where("policy_id = ?", f.PolicyID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		db = db.Where("priority = ?", f.Priority)
	}
	if f.IncidentType != "" {
		db = db.Where("incident_type = ?", f.IncidentType)
	}
	return db
}

// Update updates a claim
func (r *GormClaimRepository) Update(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Save(claim).Error
}

// Delete soft deletes a claim
func (r *GormClaimRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Claim{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
