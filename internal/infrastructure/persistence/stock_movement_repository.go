package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements inventory.StockMovementRepository
// using GORM. The journal is append-only; there is no update path.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append records one movement
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return translateError(r.db.WithContext(ctx).Create(movement).Error)
}

// ListByVoucher returns the movements a voucher produced, oldest first
func (r *GormStockMovementRepository) ListByVoucher(ctx context.Context, voucherID uuid.UUID) ([]*inventory.StockMovement, error) {
	var movements []*inventory.StockMovement
	err := r.db.WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		Order("moved_at ASC, created_at ASC").
		Find(&movements).Error
	if err != nil {
		return nil, translateError(err)
	}
	return movements, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
