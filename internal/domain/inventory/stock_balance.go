package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBalance is the on-hand position of one item in one godown. Godown
// isolation is explicit: allocation never substitutes stock from another
// godown. Invariant: quantity_on_hand - quantity_reserved >= 0.
type StockBalance struct {
	shared.BaseEntity
	CompanyID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_key,priority:1"`
	StockItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_key,priority:2"`
	GodownID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_balance_key,priority:3"`
	QuantityOnHand   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityReserved decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockBalance) TableName() string {
	return "stock_balances"
}

// NewStockBalance creates an empty balance row for an item-godown pair
func NewStockBalance(companyID, stockItemID, godownID uuid.UUID) *StockBalance {
	return &StockBalance{
		BaseEntity:       shared.NewBaseEntity(),
		CompanyID:        companyID,
		StockItemID:      stockItemID,
		GodownID:         godownID,
		QuantityOnHand:   decimal.Zero,
		QuantityReserved: decimal.Zero,
	}
}

// Unreserved returns the quantity free of reservations
func (s *StockBalance) Unreserved() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.QuantityReserved)
}

// Apply moves the on-hand quantity by the signed movement. A negative
// movement may not take the unreserved position below zero.
func (s *StockBalance) Apply(delta decimal.Decimal) error {
	next := s.QuantityOnHand.Add(delta)
	if next.Sub(s.QuantityReserved).IsNegative() {
		return shared.ErrInsufficientStock
	}
	s.QuantityOnHand = next
	s.UpdatedAt = time.Now()
	return nil
}

// Reserve sets aside quantity for a pending document
func (s *StockBalance) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if s.QuantityReserved.Add(quantity).GreaterThan(s.QuantityOnHand) {
		return shared.ErrInsufficientStock
	}
	s.QuantityReserved = s.QuantityReserved.Add(quantity)
	s.UpdatedAt = time.Now()
	return nil
}

// Release frees a previous reservation
func (s *StockBalance) Release(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if quantity.GreaterThan(s.QuantityReserved) {
		return shared.NewDomainError("INVALID_QUANTITY", "Release exceeds reserved quantity")
	}
	s.QuantityReserved = s.QuantityReserved.Sub(quantity)
	s.UpdatedAt = time.Now()
	return nil
}
