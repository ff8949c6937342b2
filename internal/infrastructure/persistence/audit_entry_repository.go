package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditEntryRepository implements audit.AuditEntryRepository using GORM.
// Entries are append-only.
type GormAuditEntryRepository struct {
	db *gorm.DB
}

// NewGormAuditEntryRepository creates a new GormAuditEntryRepository
func NewGormAuditEntryRepository(db *gorm.DB) *GormAuditEntryRepository {
	return &GormAuditEntryRepository{db: db}
}

// Append records one audit entry
func (r *GormAuditEntryRepository) Append(ctx context.Context, entry *audit.AuditEntry) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error)
}

// ListByEntity returns a company's entries for one entity, oldest first
func (r *GormAuditEntryRepository) ListByEntity(ctx context.Context, companyID, entityID uuid.UUID) ([]*audit.AuditEntry, error) {
	var entries []*audit.AuditEntry
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND entity_id = ?", companyID, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}

// Ensure GormAuditEntryRepository implements AuditEntryRepository
var _ audit.AuditEntryRepository = (*GormAuditEntryRepository)(nil)
