package posting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errIdempotencyRace signals that another transaction committed the same
// idempotency key between our Find and our Create. The losing transaction
// rolls back completely and re-reads the winner's result.
var errIdempotencyRace = errors.New("idempotency record committed by concurrent transaction")

// PostingService validates draft vouchers and commits them atomically:
// idempotency check, period and company-lock guards, FIFO stock settlement,
// balance updates under ordered locks, gap-free numbering, audit and events.
// Reversal runs the same pipeline on a structurally inverted voucher.
type PostingService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	validate       *validator.Validate
}

// NewPostingService creates a new PostingService
func NewPostingService(scope TransactionScope, logger *zap.Logger) *PostingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostingService{
		scope:    scope,
		logger:   logger,
		validate: validator.New(),
	}
}

// SetEventPublisher sets the publisher for post-commit domain events
func (s *PostingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Post validates and durably commits a draft voucher as one atomic
// transaction. A repeated idempotency key with the same payload replays the
// first result; the same key with a different payload is a conflict.
func (s *PostingService) Post(ctx context.Context, req PostVoucherRequest) (*VoucherResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	hash := hashPostPayload(req)

	var resp *VoucherResponse
	var events []shared.DomainEvent
	run := func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			resp, events, err = s.postInTx(ctx, repos, req, hash)
			return err
		})
	}

	err := run()
	if errors.Is(err, errIdempotencyRace) {
		// the racer's record is committed now; rerun to replay its result
		err = run()
	}
	if err != nil {
		s.logger.Warn("voucher posting rejected",
			zap.String("company_id", req.CompanyID.String()),
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Error(err))
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.logger.Info("voucher posted",
		zap.String("voucher_id", resp.ID.String()),
		zap.String("voucher_type", resp.VoucherType),
		zap.Int64("number", resp.Number),
		zap.Bool("replayed", resp.Replayed))
	return resp, nil
}

// Reverse produces and posts the structural inverse of a posted voucher. Each
// voucher can be reversed at most once; the original is stamped REVERSED in
// the same transaction.
func (s *PostingService) Reverse(ctx context.Context, req ReverseVoucherRequest) (*VoucherResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	hash := hashReversePayload(req)

	var resp *VoucherResponse
	var events []shared.DomainEvent
	run := func() error {
		return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			resp, events, err = s.reverseInTx(ctx, repos, req, hash)
			return err
		})
	}

	err := run()
	if errors.Is(err, errIdempotencyRace) {
		err = run()
	}
	if err != nil {
		s.logger.Warn("voucher reversal rejected",
			zap.String("company_id", req.CompanyID.String()),
			zap.String("voucher_id", req.VoucherID.String()),
			zap.Error(err))
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.logger.Info("voucher reversed",
		zap.String("original_voucher_id", req.VoucherID.String()),
		zap.String("reversal_voucher_id", resp.ID.String()),
		zap.Bool("replayed", resp.Replayed))
	return resp, nil
}

// CurrentBalance returns the running balance of one account within one
// financial year, zero when the account has not been touched.
func (s *PostingService) CurrentBalance(ctx context.Context, q BalanceQuery) (*BalanceResponse, error) {
	if err := s.validate.Struct(q); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	var resp *BalanceResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		balance, err := repos.Balances().CurrentBalance(ctx, q.CompanyID, q.LedgerAccountID, q.FinancialYearID)
		if err != nil {
			return err
		}
		resp = &BalanceResponse{
			CompanyID:       q.CompanyID,
			LedgerAccountID: q.LedgerAccountID,
			FinancialYearID: q.FinancialYearID,
			RunningBalance:  balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetVoucher loads one voucher with its lines
func (s *PostingService) GetVoucher(ctx context.Context, voucherID uuid.UUID) (*VoucherResponse, error) {
	var resp *VoucherResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		v, err := repos.Vouchers().FindByID(ctx, voucherID)
		if err != nil {
			return err
		}
		resp = ToVoucherResponse(v, false)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *PostingService) postInTx(ctx context.Context, repos TransactionalRepositories, req PostVoucherRequest, hash string) (*VoucherResponse, []shared.DomainEvent, error) {
	if resp, hit, err := s.replayIfSeen(ctx, repos, req.CompanyID, req.IdempotencyKey, hash); hit || err != nil {
		return resp, nil, err
	}

	fy, err := s.guardPeriod(ctx, repos, req.CompanyID, req.Date, req.AllowClosedYear)
	if err != nil {
		return nil, nil, err
	}

	lines := make([]ledger.VoucherLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = ledger.VoucherLine{
			LedgerAccountID: l.LedgerAccountID,
			Debit:           l.Debit,
			Credit:          l.Credit,
			StockItemID:     l.StockItemID,
			GodownID:        l.GodownID,
			Quantity:        l.Quantity,
			StockDirection:  ledger.StockDirection(l.StockDirection),
			BatchNumber:     l.BatchNumber,
			ExpiryDate:      l.ExpiryDate,
			AmountFromStock: l.AmountFromStock,
		}
	}
	v, err := ledger.NewVoucher(req.CompanyID, ledger.VoucherType(req.VoucherType), req.Date, req.Narration, lines)
	if err != nil {
		return nil, nil, err
	}

	return s.settleAndPost(ctx, repos, v, fy, req.PostedBy, req.IdempotencyKey, hash, audit.ActionVoucherPosted)
}

func (s *PostingService) reverseInTx(ctx context.Context, repos TransactionalRepositories, req ReverseVoucherRequest, hash string) (*VoucherResponse, []shared.DomainEvent, error) {
	if resp, hit, err := s.replayIfSeen(ctx, repos, req.CompanyID, req.IdempotencyKey, hash); hit || err != nil {
		return resp, nil, err
	}

	// the row lock on the original serializes concurrent reversal attempts;
	// the unique index on reversal_of_id backs the at-most-once guarantee
	original, err := repos.Vouchers().FindByIDForUpdate(ctx, req.VoucherID)
	if err != nil {
		return nil, nil, err
	}
	if original.CompanyID != req.CompanyID {
		return nil, nil, shared.ErrNotFound
	}

	fy, err := s.guardPeriod(ctx, repos, req.CompanyID, req.Date, req.AllowClosedYear)
	if err != nil {
		return nil, nil, err
	}

	reversal, err := original.BuildReversal(req.Date, req.Reason)
	if err != nil {
		return nil, nil, err
	}

	resp, events, err := s.settleAndPost(ctx, repos, reversal, fy, req.RequestedBy, req.IdempotencyKey, hash, audit.ActionVoucherReversed)
	if err != nil {
		return nil, nil, err
	}

	before := voucherSnapshot(original)
	if err := original.MarkReversed(reversal.ID, time.Now()); err != nil {
		return nil, nil, err
	}
	if err := repos.Vouchers().Update(ctx, original); err != nil {
		return nil, nil, err
	}
	if err := s.appendAudit(ctx, repos, audit.ActionVoucherReversed, original, req.RequestedBy, before); err != nil {
		return nil, nil, err
	}

	events = append(events, original.GetDomainEvents()...)
	original.ClearDomainEvents()
	return resp, events, nil
}

// guardPeriod checks the company accounting lock, then resolves and checks
// the financial year covering the date. The company lock is never
// overridable; allowClosed only bypasses the year's closed flag.
func (s *PostingService) guardPeriod(ctx context.Context, repos TransactionalRepositories, companyID uuid.UUID, date time.Time, allowClosed bool) (*ledger.FinancialYear, error) {
	company, err := repos.Companies().FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := company.EnsurePostingAllowed(); err != nil {
		return nil, err
	}

	fy, err := repos.Years().FindCovering(ctx, companyID, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ledger.ErrFinancialYearNotFound
		}
		return nil, err
	}
	if err := fy.EnsureOpen(allowClosed); err != nil {
		return nil, err
	}
	return fy, nil
}

// settleAndPost runs the shared tail of the pipeline: FIFO stock settlement,
// exact balance validation, ordered ledger updates, numbering, persistence,
// idempotency record and audit entry. Called for both fresh posts and
// reversals.
func (s *PostingService) settleAndPost(
	ctx context.Context,
	repos TransactionalRepositories,
	v *ledger.Voucher,
	fy *ledger.FinancialYear,
	actor uuid.UUID,
	key, hash string,
	action audit.AuditAction,
) (*VoucherResponse, []shared.DomainEvent, error) {
	stockEvents, err := s.applyStockLines(ctx, repos, v)
	if err != nil {
		return nil, nil, err
	}

	// exact comparison, after valuation-driven amounts are realized
	if err := v.EnsureBalanced(); err != nil {
		return nil, nil, err
	}

	if err := s.applyLedgerDeltas(ctx, repos, v, fy); err != nil {
		return nil, nil, err
	}

	number, err := repos.Sequences().Next(ctx, v.CompanyID, v.VoucherType, fy.ID)
	if err != nil {
		return nil, nil, err
	}
	if err := v.MarkPosted(number, fy.ID, actor, time.Now()); err != nil {
		return nil, nil, err
	}
	if err := repos.Vouchers().Save(ctx, v); err != nil {
		return nil, nil, err
	}

	// a keyless request opted out of deduplication; nothing to record
	if key != "" {
		record, err := ledger.NewIdempotencyRecord(v.CompanyID, key, hash, v.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := repos.Idempotency().Create(ctx, record); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return nil, nil, errIdempotencyRace
			}
			return nil, nil, err
		}
	}

	if action == audit.ActionVoucherPosted {
		if err := s.appendAudit(ctx, repos, action, v, actor, nil); err != nil {
			return nil, nil, err
		}
	}

	events := append(v.GetDomainEvents(), stockEvents...)
	v.ClearDomainEvents()
	return ToVoucherResponse(v, false), events, nil
}

// applyStockLines settles every stock-affecting line. Lines are processed in
// a fixed (stock item, godown) order so concurrent vouchers sharing items
// acquire their row locks in the same sequence. Receipts of a pair settle
// before issues of the same pair, letting a transfer-style voucher consume a
// layer it just opened. Returns the stock events to publish after commit.
func (s *PostingService) applyStockLines(ctx context.Context, repos TransactionalRepositories, v *ledger.Voucher) ([]shared.DomainEvent, error) {
	stockIdx := make([]int, 0, len(v.Lines))
	for i := range v.Lines {
		if v.Lines[i].HasStockMovement() {
			stockIdx = append(stockIdx, i)
		}
	}
	sort.SliceStable(stockIdx, func(a, b int) bool {
		la, lb := &v.Lines[stockIdx[a]], &v.Lines[stockIdx[b]]
		if c := ledger.CompareUUIDs(*la.StockItemID, *lb.StockItemID); c != 0 {
			return c < 0
		}
		if c := ledger.CompareUUIDs(*la.GodownID, *lb.GodownID); c != 0 {
			return c < 0
		}
		return la.StockDirection == ledger.StockDirectionReceipt && lb.StockDirection == ledger.StockDirectionIssue
	})

	events := make([]shared.DomainEvent, 0, len(stockIdx))
	totalIssueCost := decimal.Zero
	issued := false

	for _, i := range stockIdx {
		line := &v.Lines[i]
		itemID, godownID := *line.StockItemID, *line.GodownID

		switch line.StockDirection {
		case ledger.StockDirectionReceipt:
			amount := line.Amount()
			unitCost := amount.Div(line.Quantity)
			batchNumber := line.BatchNumber
			if batchNumber == "" {
				batchNumber = fmt.Sprintf("AUTO-%s", uuid.NewString()[:8])
			}
			batch, err := inventory.NewStockBatch(v.CompanyID, itemID, godownID, batchNumber, line.Quantity, unitCost, v.Date, line.ExpiryDate)
			if err != nil {
				return nil, err
			}
			voucherID := v.ID
			batch.SourceVoucherID = &voucherID
			if err := repos.Batches().Save(ctx, batch); err != nil {
				return nil, err
			}
			if err := s.moveStock(ctx, repos, v, itemID, godownID, line.Quantity, amount, inventory.MovementDirectionIn); err != nil {
				return nil, err
			}
			events = append(events, inventory.NewStockReceivedEvent(batch))

		case ledger.StockDirectionIssue:
			batches, err := repos.Batches().FindAvailableForUpdate(ctx, v.CompanyID, itemID, godownID)
			if err != nil {
				return nil, err
			}
			plan, err := inventory.PlanFIFO(itemID, godownID, line.Quantity, v.Date, batches)
			if err != nil {
				return nil, err
			}
			byID := make(map[uuid.UUID]*inventory.StockBatch, len(batches))
			for _, b := range batches {
				byID[b.ID] = b
			}
			for _, alloc := range plan.Allocations {
				batch := byID[alloc.BatchID]
				if err := batch.Deduct(alloc.Quantity); err != nil {
					return nil, err
				}
				if err := repos.Batches().Update(ctx, batch); err != nil {
					return nil, err
				}
			}
			if err := s.moveStock(ctx, repos, v, itemID, godownID, line.Quantity.Neg(), plan.TotalCost, inventory.MovementDirectionOut); err != nil {
				return nil, err
			}
			if line.AmountFromStock {
				line.SetAmount(plan.TotalCost)
			}
			totalIssueCost = totalIssueCost.Add(plan.TotalCost)
			issued = true
			events = append(events, inventory.NewStockIssuedEvent(v.CompanyID, plan))
		}
	}

	// plain valuation-driven lines take the voucher's total realized issue cost
	for i := range v.Lines {
		line := &v.Lines[i]
		if !line.AmountFromStock || line.HasStockMovement() {
			continue
		}
		if !issued {
			return nil, shared.NewDomainError("INVALID_LINE", "Valuation-driven line requires at least one stock issue line")
		}
		line.SetAmount(totalIssueCost)
	}

	return events, nil
}

// moveStock applies the signed quantity to the pair's balance row and appends
// the movement journal entry. delta is negative for issues.
func (s *PostingService) moveStock(
	ctx context.Context,
	repos TransactionalRepositories,
	v *ledger.Voucher,
	itemID, godownID uuid.UUID,
	delta, totalCost decimal.Decimal,
	direction inventory.MovementDirection,
) error {
	balance, err := repos.StockBalances().FindOrCreateForUpdate(ctx, v.CompanyID, itemID, godownID)
	if err != nil {
		return err
	}
	if err := balance.Apply(delta); err != nil {
		return err
	}
	if err := repos.StockBalances().Save(ctx, balance); err != nil {
		return err
	}

	voucherID := v.ID
	movement, err := inventory.NewStockMovement(v.CompanyID, itemID, godownID, &voucherID, direction, delta.Abs(), totalCost, v.Date)
	if err != nil {
		return err
	}
	return repos.Movements().Append(ctx, movement)
}

// applyLedgerDeltas updates the running balance of every touched account,
// locking balance rows in sorted account-id order to fix the acquisition
// sequence across concurrent posts. Each delta is signed by the account's
// natural balance side.
func (s *PostingService) applyLedgerDeltas(ctx context.Context, repos TransactionalRepositories, v *ledger.Voucher, fy *ledger.FinancialYear) error {
	ids := v.TouchedAccountIDs()
	accounts, err := repos.Accounts().FindByIDs(ctx, v.CompanyID, ids)
	if err != nil {
		return err
	}

	for _, id := range ids {
		account, ok := accounts[id]
		if !ok {
			return shared.NewDomainError("LEDGER_ACCOUNT_NOT_FOUND", fmt.Sprintf("Ledger account %s does not exist", id))
		}
		balance, err := repos.Balances().FindOrCreateForUpdate(ctx, v.CompanyID, id, fy.ID)
		if err != nil {
			return err
		}
		debit, credit := v.AccountDelta(id)
		balance.Apply(ledger.SignedDelta(account.Side, debit, credit))
		if err := repos.Balances().Save(ctx, balance); err != nil {
			return err
		}
	}
	return nil
}

// replayIfSeen resolves a previously committed idempotency record: same
// payload replays the stored voucher, a different payload is a conflict. An
// empty key never matches anything; those requests post unconditionally.
func (s *PostingService) replayIfSeen(ctx context.Context, repos TransactionalRepositories, companyID uuid.UUID, key, hash string) (*VoucherResponse, bool, error) {
	if key == "" {
		return nil, false, nil
	}
	record, err := repos.Idempotency().Find(ctx, companyID, key)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}
	if !record.Matches(hash) {
		return nil, false, ledger.ErrIdempotencyConflict
	}
	v, err := repos.Vouchers().FindByID(ctx, record.VoucherID)
	if err != nil {
		return nil, false, err
	}
	return ToVoucherResponse(v, true), true, nil
}

func (s *PostingService) appendAudit(ctx context.Context, repos TransactionalRepositories, action audit.AuditAction, v *ledger.Voucher, actor uuid.UUID, before map[string]any) error {
	entry, err := audit.NewAuditEntry(v.CompanyID, action, "Voucher", v.ID, actor, before, voucherSnapshot(v))
	if err != nil {
		return err
	}
	return repos.Audit().Append(ctx, entry)
}

func (s *PostingService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

func voucherSnapshot(v *ledger.Voucher) map[string]any {
	snapshot := map[string]any{
		"status":       v.Status.String(),
		"voucher_type": v.VoucherType.String(),
		"number":       v.Number,
		"date":         v.Date.Format(time.RFC3339),
		"total_debit":  v.TotalDebit().String(),
		"total_credit": v.TotalCredit().String(),
		"line_count":   len(v.Lines),
	}
	if v.ReversedByID != nil {
		snapshot["reversed_by_id"] = v.ReversedByID.String()
	}
	if v.ReversalOfID != nil {
		snapshot["reversal_of_id"] = v.ReversalOfID.String()
	}
	return snapshot
}
