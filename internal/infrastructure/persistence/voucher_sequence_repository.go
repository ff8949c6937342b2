package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherSequenceRepository implements ledger.VoucherSequenceRepository
// using GORM. Numbers are handed out under a row lock inside the caller's
// transaction: an aborted post rolls its increment back, so committed numbers
// stay gap-free, and two concurrent posts of the same triple serialize on the
// counter row.
type GormVoucherSequenceRepository struct {
	db *gorm.DB
}

// NewGormVoucherSequenceRepository creates a new GormVoucherSequenceRepository
func NewGormVoucherSequenceRepository(db *gorm.DB) *GormVoucherSequenceRepository {
	return &GormVoucherSequenceRepository{db: db}
}

// Next locks the counter row for (company, type, year), creating it lazily on
// first use, and returns the taken number after advancing the counter.
func (r *GormVoucherSequenceRepository) Next(ctx context.Context, companyID uuid.UUID, voucherType ledger.VoucherType, yearID uuid.UUID) (int64, error) {
	seq, err := r.findForUpdate(ctx, companyID, voucherType, yearID)
	if errors.Is(err, shared.ErrNotFound) {
		// ON CONFLICT DO NOTHING keeps the transaction usable when another
		// transaction created the row first; the re-lock below picks it up
		fresh := ledger.NewVoucherSequence(companyID, voucherType, yearID)
		createErr := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "company_id"}, {Name: "voucher_type"}, {Name: "financial_year_id"}},
				DoNothing: true,
			}).
			Create(fresh).Error
		if createErr != nil {
			return 0, translateError(createErr)
		}
		seq, err = r.findForUpdate(ctx, companyID, voucherType, yearID)
	}
	if err != nil {
		return 0, err
	}

	number := seq.Take()
	if err := r.db.WithContext(ctx).Save(seq).Error; err != nil {
		return 0, translateError(err)
	}
	return number, nil
}

func (r *GormVoucherSequenceRepository) findForUpdate(ctx context.Context, companyID uuid.UUID, voucherType ledger.VoucherType, yearID uuid.UUID) (*ledger.VoucherSequence, error) {
	var seq ledger.VoucherSequence
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND voucher_type = ? AND financial_year_id = ?", companyID, voucherType, yearID).
		First(&seq).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &seq, nil
}

// Ensure GormVoucherSequenceRepository implements VoucherSequenceRepository
var _ ledger.VoucherSequenceRepository = (*GormVoucherSequenceRepository)(nil)
