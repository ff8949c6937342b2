package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementDirection marks whether a movement adds or removes stock
type MovementDirection string

const (
	MovementDirectionIn  MovementDirection = "IN"
	MovementDirectionOut MovementDirection = "OUT"
)

// IsValid checks if the direction is valid
func (d MovementDirection) IsValid() bool {
	return d == MovementDirectionIn || d == MovementDirectionOut
}

// StockMovement is one append-only row of the stock movement journal. Every
// receipt, issue and reversal writes one; rows are never edited in place. The
// journal is the queryable trace of what the allocator did per voucher.
type StockMovement struct {
	shared.BaseEntity
	CompanyID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	StockItemID uuid.UUID         `gorm:"type:uuid;not null;index"`
	GodownID    uuid.UUID         `gorm:"type:uuid;not null"`
	VoucherID   *uuid.UUID        `gorm:"type:uuid;index"`
	Direction   MovementDirection `gorm:"type:varchar(5);not null"`
	Quantity    decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	TotalCost   decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	MovedAt     time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records one movement
func NewStockMovement(
	companyID, stockItemID, godownID uuid.UUID,
	voucherID *uuid.UUID,
	direction MovementDirection,
	quantity, totalCost decimal.Decimal,
	movedAt time.Time,
) (*StockMovement, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Movement direction must be IN or OUT")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Movement quantity must be positive")
	}
	if totalCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT", "Movement cost cannot be negative")
	}
	return &StockMovement{
		BaseEntity:  shared.NewBaseEntity(),
		CompanyID:   companyID,
		StockItemID: stockItemID,
		GodownID:    godownID,
		VoucherID:   voucherID,
		Direction:   direction,
		Quantity:    quantity,
		TotalCost:   totalCost,
		MovedAt:     movedAt,
	}, nil
}

// UnitCost returns the movement's effective per-unit cost
func (m *StockMovement) UnitCost() decimal.Decimal {
	if m.Quantity.IsZero() {
		return decimal.Zero
	}
	return m.TotalCost.Div(m.Quantity)
}
