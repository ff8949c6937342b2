package period

import (
	"context"
	"errors"
	"time"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FinancialYearService manages the posting calendar: creating years, the
// covering-year check used by the posting guard, and the audited close,
// reopen and accounting-lock flips.
type FinancialYearService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	validate       *validator.Validate
}

// NewFinancialYearService creates a new FinancialYearService
func NewFinancialYearService(scope TransactionScope, logger *zap.Logger) *FinancialYearService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinancialYearService{
		scope:    scope,
		logger:   logger,
		validate: validator.New(),
	}
}

// SetEventPublisher sets the publisher for post-commit domain events
func (s *FinancialYearService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateYear opens a new financial year. Years of one company must not
// overlap; the new year may optionally become the current one.
func (s *FinancialYearService) CreateYear(ctx context.Context, req CreateYearRequest) (*YearResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}

	var resp *YearResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Companies().FindByID(ctx, req.CompanyID); err != nil {
			return err
		}
		existing, err := repos.Years().FindOverlapping(ctx, req.CompanyID, req.StartDate, req.EndDate)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("YEAR_OVERLAP", "Financial year overlaps an existing year")
		}

		fy, err := ledger.NewFinancialYear(req.CompanyID, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if req.MakeCurrent {
			if err := repos.Years().MakeCurrent(ctx, fy); err != nil {
				return err
			}
		} else if err := repos.Years().Save(ctx, fy); err != nil {
			return err
		}
		resp = ToYearResponse(fy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("financial year created",
		zap.String("year_id", resp.ID.String()),
		zap.Time("start_date", resp.StartDate),
		zap.Time("end_date", resp.EndDate))
	return resp, nil
}

// Check resolves the year covering the date and applies the posting guards:
// company accounting lock first, then the year's closed flag.
func (s *FinancialYearService) Check(ctx context.Context, req CheckDateRequest) (*YearResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}

	var resp *YearResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		company, err := repos.Companies().FindByID(ctx, req.CompanyID)
		if err != nil {
			return err
		}
		if err := company.EnsurePostingAllowed(); err != nil {
			return err
		}

		fy, err := repos.Years().FindCovering(ctx, req.CompanyID, req.Date)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return ledger.ErrFinancialYearNotFound
			}
			return err
		}
		if err := fy.EnsureOpen(req.AllowClosed); err != nil {
			return err
		}
		resp = ToYearResponse(fy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CloseYear closes a year for posting. The flip is audited; vouchers already
// posted inside the year are untouched.
func (s *FinancialYearService) CloseYear(ctx context.Context, req CloseYearRequest) (*YearResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	return s.flipYear(ctx, req.CompanyID, req.YearID, req.ActorID, audit.ActionYearClosed,
		func(fy *ledger.FinancialYear) error { return fy.Close(req.ActorID, time.Now()) })
}

// ReopenYear reopens a closed year. Reopening does not retroactively
// re-validate anything posted while it was closed.
func (s *FinancialYearService) ReopenYear(ctx context.Context, req ReopenYearRequest) (*YearResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", err.Error())
	}
	return s.flipYear(ctx, req.CompanyID, req.YearID, req.ActorID, audit.ActionYearReopened,
		func(fy *ledger.FinancialYear) error { return fy.Reopen(req.ActorID, time.Now()) })
}

func (s *FinancialYearService) flipYear(
	ctx context.Context,
	companyID, yearID, actorID uuid.UUID,
	action audit.AuditAction,
	flip func(*ledger.FinancialYear) error,
) (*YearResponse, error) {
	var resp *YearResponse
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		fy, err := repos.Years().FindByID(ctx, yearID)
		if err != nil {
			return err
		}
		if fy.CompanyID != companyID {
			return shared.ErrNotFound
		}

		before := yearSnapshot(fy)
		if err := flip(fy); err != nil {
			return err
		}
		if err := repos.Years().Update(ctx, fy); err != nil {
			return err
		}

		entry, err := audit.NewAuditEntry(companyID, action, "FinancialYear", fy.ID, actorID, before, yearSnapshot(fy))
		if err != nil {
			return err
		}
		if err := repos.Audit().Append(ctx, entry); err != nil {
			return err
		}

		events = fy.GetDomainEvents()
		fy.ClearDomainEvents()
		resp = ToYearResponse(fy)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.logger.Info("financial year state changed",
		zap.String("year_id", yearID.String()),
		zap.String("action", string(action)))
	return resp, nil
}

// SetAccountingLock flips the company-wide accounting lock, which blocks all
// postings regardless of financial year state.
func (s *FinancialYearService) SetAccountingLock(ctx context.Context, req SetAccountingLockRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return shared.NewDomainError("INVALID_REQUEST", err.Error())
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		company, err := repos.Companies().FindByID(ctx, req.CompanyID)
		if err != nil {
			return err
		}

		before := map[string]any{"accounting_locked": company.AccountingLocked}
		action := audit.ActionAccountingUnlocked
		if req.Locked {
			company.LockAccounting()
			action = audit.ActionAccountingLocked
		} else {
			company.UnlockAccounting()
		}
		if err := repos.Companies().Update(ctx, company); err != nil {
			return err
		}

		entry, err := audit.NewAuditEntry(req.CompanyID, action, "Company", company.ID, req.ActorID,
			before, map[string]any{"accounting_locked": company.AccountingLocked})
		if err != nil {
			return err
		}
		return repos.Audit().Append(ctx, entry)
	})
	if err != nil {
		return err
	}

	s.logger.Info("accounting lock changed",
		zap.String("company_id", req.CompanyID.String()),
		zap.Bool("locked", req.Locked))
	return nil
}

func (s *FinancialYearService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

func yearSnapshot(fy *ledger.FinancialYear) map[string]any {
	return map[string]any{
		"is_closed":  fy.IsClosed,
		"is_current": fy.IsCurrent,
		"start_date": fy.StartDate.Format(time.RFC3339),
		"end_date":   fy.EndDate.Format(time.RFC3339),
	}
}
