package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherRepository implements ledger.VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByID loads a voucher with its lines
func (r *GormVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Voucher, error) {
	var voucher ledger.Voucher
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&voucher, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &voucher, nil
}

// FindByIDForUpdate loads a voucher with its lines under a row lock. The lock
// covers the voucher row only; lines of a posted voucher never change.
func (r *GormVoucherRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Voucher, error) {
	var voucher ledger.Voucher
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		First(&voucher, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &voucher, nil
}

// Save inserts a new voucher and its lines
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *ledger.Voucher) error {
	return translateError(r.db.WithContext(ctx).Create(voucher).Error)
}

// Update persists lifecycle changes on the voucher row. Lines are immutable
// after posting and deliberately excluded.
func (r *GormVoucherRepository) Update(ctx context.Context, voucher *ledger.Voucher) error {
	return translateError(r.db.WithContext(ctx).
		Omit("Lines").
		Save(voucher).Error)
}

// Ensure GormVoucherRepository implements VoucherRepository
var _ ledger.VoucherRepository = (*GormVoucherRepository)(nil)
