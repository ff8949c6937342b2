package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockBatchRepository implements inventory.StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindAvailableForUpdate loads the pair's unexhausted cost layers oldest
// first, under row locks. Same-date layers tie-break on creation time so the
// FIFO order is total. Expiry is not filtered here - the allocator decides
// eligibility against the posting date.
func (r *GormStockBatchRepository) FindAvailableForUpdate(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) ([]*inventory.StockBatch, error) {
	var batches []*inventory.StockBatch
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND stock_item_id = ? AND godown_id = ? AND quantity_remaining > 0",
			companyID, stockItemID, godownID).
		Order("received_date ASC, created_at ASC").
		Find(&batches).Error
	if err != nil {
		return nil, translateError(err)
	}
	return batches, nil
}

// Save inserts a new cost layer
func (r *GormStockBatchRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	return translateError(r.db.WithContext(ctx).Create(batch).Error)
}

// Update persists a deduction on an existing layer
func (r *GormStockBatchRepository) Update(ctx context.Context, batch *inventory.StockBatch) error {
	return translateError(r.db.WithContext(ctx).Save(batch).Error)
}

// Ensure GormStockBatchRepository implements StockBatchRepository
var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
