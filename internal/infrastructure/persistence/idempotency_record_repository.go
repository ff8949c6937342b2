package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIdempotencyRecordRepository implements ledger.IdempotencyRecordRepository
// using GORM. The unique index on (company_id, key) is the first-committer-wins
// arbiter: a losing insert surfaces shared.ErrAlreadyExists and the caller
// replays the winner's result.
type GormIdempotencyRecordRepository struct {
	db *gorm.DB
}

// NewGormIdempotencyRecordRepository creates a new GormIdempotencyRecordRepository
func NewGormIdempotencyRecordRepository(db *gorm.DB) *GormIdempotencyRecordRepository {
	return &GormIdempotencyRecordRepository{db: db}
}

// Find returns the record for (company, key), or nil when absent
func (r *GormIdempotencyRecordRepository) Find(ctx context.Context, companyID uuid.UUID, key string) (*ledger.IdempotencyRecord, error) {
	var record ledger.IdempotencyRecord
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND key = ?", companyID, key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &record, nil
}

// Create inserts the record; shared.ErrAlreadyExists when another transaction
// committed the same (company, key) first
func (r *GormIdempotencyRecordRepository) Create(ctx context.Context, record *ledger.IdempotencyRecord) error {
	return translateError(r.db.WithContext(ctx).Create(record).Error)
}

// Ensure GormIdempotencyRecordRepository implements IdempotencyRecordRepository
var _ ledger.IdempotencyRecordRepository = (*GormIdempotencyRecordRepository)(nil)
