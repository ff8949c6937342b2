package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBatchRepository persists cost layers
type StockBatchRepository interface {
	// FindAvailableForUpdate loads the item-godown pair's unexhausted layers
	// oldest first, under row locks so concurrent issues of the same item
	// serialize. Expiry filtering against the posting date stays in the FIFO
	// plan, which sees every unexhausted layer.
	FindAvailableForUpdate(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) ([]*StockBatch, error)
	Save(ctx context.Context, batch *StockBatch) error
	Update(ctx context.Context, batch *StockBatch) error
}

// StockBalanceRepository stores per item-godown on-hand positions
type StockBalanceRepository interface {
	Find(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (*StockBalance, error)
	// FindOrCreateForUpdate acquires the balance row lock, creating an empty
	// row for a pair that has never moved
	FindOrCreateForUpdate(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (*StockBalance, error)
	Save(ctx context.Context, balance *StockBalance) error
	// OnHand returns the on-hand quantity, zero when no row exists
	OnHand(ctx context.Context, companyID, stockItemID, godownID uuid.UUID) (decimal.Decimal, error)
}

// StockMovementRepository appends to the movement journal
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	ListByVoucher(ctx context.Context, voucherID uuid.UUID) ([]*StockMovement, error)
}
