package stock

import (
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveStockRequest opens a fresh cost layer outside the voucher pipeline,
// e.g. for opening balances or physical adjustments
type ReceiveStockRequest struct {
	CompanyID    uuid.UUID       `json:"company_id" validate:"required"`
	StockItemID  uuid.UUID       `json:"stock_item_id" validate:"required"`
	GodownID     uuid.UUID       `json:"godown_id" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate time.Time       `json:"received_date" validate:"required"`
	BatchNumber  string          `json:"batch_number" validate:"max=50"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
}

// ReceiveStockResponse reports the opened layer
type ReceiveStockResponse struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	OnHand      decimal.Decimal `json:"on_hand"`
}

// IssueStockRequest consumes stock through the FIFO allocator outside the
// voucher pipeline
type IssueStockRequest struct {
	CompanyID   uuid.UUID       `json:"company_id" validate:"required"`
	StockItemID uuid.UUID       `json:"stock_item_id" validate:"required"`
	GodownID    uuid.UUID       `json:"godown_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	AsOf        time.Time       `json:"as_of" validate:"required"`
}

// IssueStockResponse reports the consumed layers and realized cost
type IssueStockResponse struct {
	Allocations  []inventory.BatchAllocation `json:"allocations"`
	RealizedCost decimal.Decimal             `json:"realized_cost"`
	OnHand       decimal.Decimal             `json:"on_hand"`
}

// MovementsQuery identifies the journal rows one voucher produced
type MovementsQuery struct {
	VoucherID uuid.UUID `json:"voucher_id" validate:"required"`
}

// MovementResponse is one movement journal row in API responses
type MovementResponse struct {
	StockItemID uuid.UUID       `json:"stock_item_id"`
	GodownID    uuid.UUID       `json:"godown_id"`
	Direction   string          `json:"direction"`
	Quantity    decimal.Decimal `json:"quantity"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	MovedAt     time.Time       `json:"moved_at"`
}

// OnHandQuery identifies one item-godown position
type OnHandQuery struct {
	CompanyID   uuid.UUID `json:"company_id" validate:"required"`
	StockItemID uuid.UUID `json:"stock_item_id" validate:"required"`
	GodownID    uuid.UUID `json:"godown_id" validate:"required"`
}

// OnHandResponse is a read-only stock position snapshot
type OnHandResponse struct {
	CompanyID   uuid.UUID       `json:"company_id"`
	StockItemID uuid.UUID       `json:"stock_item_id"`
	GodownID    uuid.UUID       `json:"godown_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
}
