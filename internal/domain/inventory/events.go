package inventory

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockReceivedEvent is raised when a fresh cost layer is opened
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	BatchID      uuid.UUID       `json:"batch_id"`
	StockItemID  uuid.UUID       `json:"stock_item_id"`
	GodownID     uuid.UUID       `json:"godown_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate time.Time       `json:"received_date"`
}

// EventType returns the event type name
func (e *StockReceivedEvent) EventType() string {
	return "StockReceived"
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(batch *StockBatch) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StockReceived", "StockBatch", batch.ID, batch.CompanyID),
		BatchID:         batch.ID,
		StockItemID:     batch.StockItemID,
		GodownID:        batch.GodownID,
		Quantity:        batch.QuantityReceived,
		UnitCost:        batch.UnitCost,
		ReceivedDate:    batch.ReceivedDate,
	}
}

// StockIssuedEvent is raised when stock is consumed through FIFO allocation
type StockIssuedEvent struct {
	shared.BaseDomainEvent
	StockItemID  uuid.UUID         `json:"stock_item_id"`
	GodownID     uuid.UUID         `json:"godown_id"`
	Quantity     decimal.Decimal   `json:"quantity"`
	RealizedCost decimal.Decimal   `json:"realized_cost"`
	Allocations  []BatchAllocation `json:"allocations"`
}

// EventType returns the event type name
func (e *StockIssuedEvent) EventType() string {
	return "StockIssued"
}

// NewStockIssuedEvent creates a new StockIssuedEvent
func NewStockIssuedEvent(companyID uuid.UUID, plan *AllocationPlan) *StockIssuedEvent {
	return &StockIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("StockIssued", "StockBalance", plan.StockItemID, companyID),
		StockItemID:     plan.StockItemID,
		GodownID:        plan.GodownID,
		Quantity:        plan.Quantity,
		RealizedCost:    plan.TotalCost,
		Allocations:     plan.Allocations,
	}
}
