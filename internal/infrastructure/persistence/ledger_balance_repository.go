package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerBalanceRepository implements ledger.LedgerBalanceRepository using GORM
type GormLedgerBalanceRepository struct {
	db *gorm.DB
}

// NewGormLedgerBalanceRepository creates a new GormLedgerBalanceRepository
func NewGormLedgerBalanceRepository(db *gorm.DB) *GormLedgerBalanceRepository {
	return &GormLedgerBalanceRepository{db: db}
}

// Find retrieves the balance row for (company, account, year)
func (r *GormLedgerBalanceRepository) Find(ctx context.Context, companyID, accountID, yearID uuid.UUID) (*ledger.LedgerBalance, error) {
	var balance ledger.LedgerBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND ledger_account_id = ? AND financial_year_id = ?", companyID, accountID, yearID).
		First(&balance).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &balance, nil
}

// FindOrCreateForUpdate acquires the balance row lock, inserting a zero row
// for an account the year has not touched yet. The insert uses ON CONFLICT DO
// NOTHING so a lost creation race never aborts the surrounding transaction;
// the loser then locks the winner's row.
func (r *GormLedgerBalanceRepository) FindOrCreateForUpdate(ctx context.Context, companyID, accountID, yearID uuid.UUID) (*ledger.LedgerBalance, error) {
	balance, err := r.findForUpdate(ctx, companyID, accountID, yearID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh := ledger.NewLedgerBalance(companyID, accountID, yearID, decimal.Zero)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "ledger_account_id"}, {Name: "financial_year_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.findForUpdate(ctx, companyID, accountID, yearID)
}

func (r *GormLedgerBalanceRepository) findForUpdate(ctx context.Context, companyID, accountID, yearID uuid.UUID) (*ledger.LedgerBalance, error) {
	var balance ledger.LedgerBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND ledger_account_id = ? AND financial_year_id = ?", companyID, accountID, yearID).
		First(&balance).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &balance, nil
}

// Save persists the balance row
func (r *GormLedgerBalanceRepository) Save(ctx context.Context, balance *ledger.LedgerBalance) error {
	return translateError(r.db.WithContext(ctx).Save(balance).Error)
}

// CurrentBalance returns the running balance, zero when no row exists
func (r *GormLedgerBalanceRepository) CurrentBalance(ctx context.Context, companyID, accountID, yearID uuid.UUID) (decimal.Decimal, error) {
	balance, err := r.Find(ctx, companyID, accountID, yearID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.RunningBalance, nil
}

// Ensure GormLedgerBalanceRepository implements LedgerBalanceRepository
var _ ledger.LedgerBalanceRepository = (*GormLedgerBalanceRepository)(nil)
