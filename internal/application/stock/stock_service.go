package stock

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockService exposes the allocator's receive/issue primitives directly,
// for callers that move stock without a voucher: opening balances, physical
// count adjustments, godown transfers staged outside accounting.
type StockService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	validate       *validator.Validate
}

// NewStockService creates a new StockService
func NewStockService(scope TransactionScope, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:    scope,
		logger:   logger,
		validate: validator.New(),
	}
}

// SetEventPublisher sets the publisher for post-commit domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Receive opens a fresh cost layer and moves the on-hand balance up
func (s *StockService) Receive(ctx context.Context, req ReceiveStockRequest) (*ReceiveStockResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}

	var resp *ReceiveStockResponse
	var event shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batchNumber := req.BatchNumber
		if batchNumber == "" {
			batchNumber = fmt.Sprintf("AUTO-%s", uuid.NewString()[:8])
		}
		batch, err := inventory.NewStockBatch(req.CompanyID, req.StockItemID, req.GodownID,
			batchNumber, req.Quantity, req.UnitCost, req.ReceivedDate, req.ExpiryDate)
		if err != nil {
			return err
		}
		if err := repos.Batches().Save(ctx, batch); err != nil {
			return err
		}

		balance, err := repos.StockBalances().FindOrCreateForUpdate(ctx, req.CompanyID, req.StockItemID, req.GodownID)
		if err != nil {
			return err
		}
		if err := balance.Apply(req.Quantity); err != nil {
			return err
		}
		if err := repos.StockBalances().Save(ctx, balance); err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(req.CompanyID, req.StockItemID, req.GodownID,
			nil, inventory.MovementDirectionIn, req.Quantity, req.Quantity.Mul(req.UnitCost), req.ReceivedDate)
		if err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}

		event = inventory.NewStockReceivedEvent(batch)
		resp = &ReceiveStockResponse{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Quantity:    batch.QuantityReceived,
			UnitCost:    batch.UnitCost,
			OnHand:      balance.QuantityOnHand,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, event)
	s.logger.Info("stock received",
		zap.String("stock_item_id", req.StockItemID.String()),
		zap.String("batch_number", resp.BatchNumber),
		zap.String("quantity", resp.Quantity.String()))
	return resp, nil
}

// Issue consumes stock oldest-first and reports the realized cost. All-or-
// nothing: a shortfall fails the whole issue and mutates nothing.
func (s *StockService) Issue(ctx context.Context, req IssueStockRequest) (*IssueStockResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}

	var resp *IssueStockResponse
	var event shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		batches, err := repos.Batches().FindAvailableForUpdate(ctx, req.CompanyID, req.StockItemID, req.GodownID)
		if err != nil {
			return err
		}
		plan, err := inventory.PlanFIFO(req.StockItemID, req.GodownID, req.Quantity, req.AsOf, batches)
		if err != nil {
			return err
		}

		byID := make(map[uuid.UUID]*inventory.StockBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}
		for _, alloc := range plan.Allocations {
			batch := byID[alloc.BatchID]
			if err := batch.Deduct(alloc.Quantity); err != nil {
				return err
			}
			if err := repos.Batches().Update(ctx, batch); err != nil {
				return err
			}
		}

		balance, err := repos.StockBalances().FindOrCreateForUpdate(ctx, req.CompanyID, req.StockItemID, req.GodownID)
		if err != nil {
			return err
		}
		if err := balance.Apply(req.Quantity.Neg()); err != nil {
			return err
		}
		if err := repos.StockBalances().Save(ctx, balance); err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(req.CompanyID, req.StockItemID, req.GodownID,
			nil, inventory.MovementDirectionOut, req.Quantity, plan.TotalCost, req.AsOf)
		if err != nil {
			return err
		}
		if err := repos.Movements().Append(ctx, movement); err != nil {
			return err
		}

		event = inventory.NewStockIssuedEvent(req.CompanyID, plan)
		resp = &IssueStockResponse{
			Allocations:  plan.Allocations,
			RealizedCost: plan.TotalCost,
			OnHand:       balance.QuantityOnHand,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, event)
	s.logger.Info("stock issued",
		zap.String("stock_item_id", req.StockItemID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("realized_cost", resp.RealizedCost.String()))
	return resp, nil
}

// OnHand returns the current stock position, zero when the pair never moved
func (s *StockService) OnHand(ctx context.Context, q OnHandQuery) (*OnHandResponse, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	var resp *OnHandResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		onHand, err := repos.StockBalances().OnHand(ctx, q.CompanyID, q.StockItemID, q.GodownID)
		if err != nil {
			return err
		}
		resp = &OnHandResponse{
			CompanyID:   q.CompanyID,
			StockItemID: q.StockItemID,
			GodownID:    q.GodownID,
			OnHand:      onHand,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// MovementsByVoucher returns the journal rows a voucher wrote, oldest first.
// Receipts and issues appear as IN/OUT rows at their realized cost, which
// makes the query the per-voucher audit trail of the allocator.
func (s *StockService) MovementsByVoucher(ctx context.Context, q MovementsQuery) ([]MovementResponse, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	var out []MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.Movements().ListByVoucher(ctx, q.VoucherID)
		if err != nil {
			return err
		}
		out = make([]MovementResponse, len(movements))
		for i, m := range movements {
			out[i] = MovementResponse{
				StockItemID: m.StockItemID,
				GodownID:    m.GodownID,
				Direction:   string(m.Direction),
				Quantity:    m.Quantity,
				TotalCost:   m.TotalCost,
				MovedAt:     m.MovedAt,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *StockService) publishEvent(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil || event == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}
