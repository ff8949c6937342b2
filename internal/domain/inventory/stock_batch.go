package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBatch is one cost layer: a quantity of an item received into a godown
// at a specific unit cost and date. Batches are created on receipt and never
// deleted - an exhausted batch stays at zero remaining quantity for audit
// history. QuantityRemaining only ever decreases.
type StockBatch struct {
	shared.BaseEntity
	CompanyID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_batch_item_godown"`
	GodownID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_batch_item_godown"`
	BatchNumber       string          `gorm:"type:varchar(50);not null"`
	ReceivedDate      time.Time       `gorm:"not null;index"`
	QuantityReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityRemaining decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiryDate        *time.Time
	SourceVoucherID   *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch opens a fresh cost layer
func NewStockBatch(
	companyID, stockItemID, godownID uuid.UUID,
	batchNumber string,
	quantity, unitCost decimal.Decimal,
	receivedDate time.Time,
	expiryDate *time.Time,
) (*StockBatch, error) {
	if stockItemID == uuid.Nil || godownID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BATCH", "Stock item and godown are required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BATCH", "Unit cost cannot be negative")
	}
	if receivedDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_BATCH", "Received date is required")
	}
	return &StockBatch{
		BaseEntity:        shared.NewBaseEntity(),
		CompanyID:         companyID,
		StockItemID:       stockItemID,
		GodownID:          godownID,
		BatchNumber:       batchNumber,
		ReceivedDate:      receivedDate,
		QuantityReceived:  quantity,
		QuantityRemaining: quantity,
		UnitCost:          unitCost,
		ExpiryDate:        expiryDate,
	}, nil
}

// IsExhausted returns true once the layer has been fully consumed
func (b *StockBatch) IsExhausted() bool {
	return !b.QuantityRemaining.IsPositive()
}

// IsExpiredAsOf returns true if the batch has expired as of the given date
func (b *StockBatch) IsExpiredAsOf(asOf time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(asOf)
}

// AvailableAsOf returns true if the layer can be consumed on the given date
func (b *StockBatch) AvailableAsOf(asOf time.Time) bool {
	return !b.IsExhausted() && !b.IsExpiredAsOf(asOf)
}

// Deduct consumes quantity from the layer. The remaining quantity never goes
// below zero: over-consumption is a caller bug surfaced as an error, not a
// silent partial deduction.
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be positive")
	}
	if quantity.GreaterThan(b.QuantityRemaining) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction exceeds remaining batch quantity")
	}
	b.QuantityRemaining = b.QuantityRemaining.Sub(quantity)
	b.UpdatedAt = time.Now()
	return nil
}

// RemainingValue returns the layer's remaining quantity at its unit cost
func (b *StockBatch) RemainingValue() decimal.Decimal {
	return b.QuantityRemaining.Mul(b.UnitCost)
}
