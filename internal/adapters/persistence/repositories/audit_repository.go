package repositories

import (
	"context"

	"assurance-claims/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// GormAuditRepository handles audit trail data access
type GormAuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create creates a new audit entry
func (r *GormAuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByEntity gets the history of one policy or claim, newest first
func (r *GormAuditRepository) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}
