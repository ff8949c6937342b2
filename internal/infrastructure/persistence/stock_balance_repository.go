package persistence

import (
	"context"
	"errors"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockBalanceRepository implements inventory.StockBalanceRepository using GORM
type GormStockBalanceRepository struct {
	db *gorm.DB
}

// NewGormStockBalanceRepository creates a new GormStockBalanceRepository
func NewGormStockBalanceRepository(db *gorm.DB) *GormStockBalanceRepository {
	return &GormStockBalanceRepository{db: db}
}

// Find retrieves the balance row for an item-godown pair
func (r *GormStockBalanceRepository) Find(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (*inventory.StockBalance, error) {
	var balance inventory.StockBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND stock_item_id = ? AND godown_id = ?", companyID, stockItemID, godownID).
		First(&balance).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &balance, nil
}

// FindOrCreateForUpdate acquires the balance row lock, inserting an empty row
// for a pair that has never moved. The insert uses ON CONFLICT DO NOTHING so
// a lost creation race never aborts the surrounding transaction; the loser
// then locks the winner's row.
func (r *GormStockBalanceRepository) FindOrCreateForUpdate(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (*inventory.StockBalance, error) {
	balance, err := r.findForUpdate(ctx, companyID, stockItemID, godownID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	fresh := inventory.NewStockBalance(companyID, stockItemID, godownID)
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "stock_item_id"}, {Name: "godown_id"}},
			DoNothing: true,
		}).
		Create(fresh).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.findForUpdate(ctx, companyID, stockItemID, godownID)
}

func (r *GormStockBalanceRepository) findForUpdate(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (*inventory.StockBalance, error) {
	var balance inventory.StockBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND stock_item_id = ? AND godown_id = ?", companyID, stockItemID, godownID).
		First(&balance).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &balance, nil
}

// Save persists the balance row
func (r *GormStockBalanceRepository) Save(ctx context.Context, balance *inventory.StockBalance) error {
	return translateError(r.db.WithContext(ctx).Save(balance).Error)
}

// OnHand returns the on-hand quantity, zero when no row exists
func (r *GormStockBalanceRepository) OnHand(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (decimal.Decimal, error) {
	balance, err := r.Find(ctx, companyID, stockItemID, godownID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return balance.QuantityOnHand, nil
}

// Ensure GormStockBalanceRepository implements StockBalanceRepository
var _ inventory.StockBalanceRepository = (*GormStockBalanceRepository)(nil)
