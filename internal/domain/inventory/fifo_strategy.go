package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsufficientStockError reports the shortfall of a failed allocation. The
// allocation is all-or-nothing: nothing is mutated when this is returned.
type InsufficientStockError struct {
	StockItemID uuid.UUID
	GodownID    uuid.UUID
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for item %s in godown %s: requested %s, available %s (short %s)",
		e.StockItemID, e.GodownID,
		e.Requested, e.Available, e.Requested.Sub(e.Available),
	)
}

// Unwrap allows errors.Is against shared.ErrInsufficientStock
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// Shortfall returns the missing quantity
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// BatchAllocation is the share of one cost layer consumed by an allocation
type BatchAllocation struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Cost        decimal.Decimal `json:"cost"`
}

// AllocationPlan is the outcome of a FIFO allocation across cost layers. The
// realized TotalCost is authoritative for valuation-driven voucher lines.
type AllocationPlan struct {
	StockItemID uuid.UUID         `json:"stock_item_id"`
	GodownID    uuid.UUID         `json:"godown_id"`
	Allocations []BatchAllocation `json:"allocations"`
	Quantity    decimal.Decimal   `json:"quantity"`
	TotalCost   decimal.Decimal   `json:"total_cost"`
}

// WeightedUnitCost returns the plan's average per-unit cost
func (p *AllocationPlan) WeightedUnitCost() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.Div(p.Quantity)
}

// sortBatchesFIFO orders layers oldest first by received date, ties broken by
// creation time so same-day receipts consume in arrival order.
func sortBatchesFIFO(batches []*StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].ReceivedDate.Equal(batches[j].ReceivedDate) {
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
}

// PlanFIFO computes which cost layers satisfy the requested quantity,
// consuming oldest layers first. Exhausted layers and layers expired as of
// asOf are skipped. The plan is all-or-nothing: if the eligible layers cannot
// cover the request, an InsufficientStockError carrying the shortfall is
// returned and no batch is touched. Batches are not mutated here; the caller
// applies the plan's deductions inside its transaction.
func PlanFIFO(stockItemID, godownID uuid.UUID, requested decimal.Decimal, asOf time.Time, batches []*StockBatch) (*AllocationPlan, error) {
	if !requested.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	eligible := make([]*StockBatch, 0, len(batches))
	available := decimal.Zero
	for _, b := range batches {
		if b.StockItemID != stockItemID || b.GodownID != godownID {
			continue
		}
		if !b.AvailableAsOf(asOf) {
			continue
		}
		eligible = append(eligible, b)
		available = available.Add(b.QuantityRemaining)
	}

	if available.LessThan(requested) {
		return nil, &InsufficientStockError{
			StockItemID: stockItemID,
			GodownID:    godownID,
			Requested:   requested,
			Available:   available,
		}
	}

	sortBatchesFIFO(eligible)

	plan := &AllocationPlan{
		StockItemID: stockItemID,
		GodownID:    godownID,
		Allocations: make([]BatchAllocation, 0, len(eligible)),
		Quantity:    requested,
		TotalCost:   decimal.Zero,
	}

	remaining := requested
	for _, b := range eligible {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, b.QuantityRemaining)
		cost := take.Mul(b.UnitCost)
		plan.Allocations = append(plan.Allocations, BatchAllocation{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			UnitCost:    b.UnitCost,
			Cost:        cost,
		})
		plan.TotalCost = plan.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	return plan, nil
}
