package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// FinancialYear is an accounting period. At most one year per company is
// current; the repository enforces that invariant at write time rather than
// relying on ambient global state. Closing is an explicit, audited operation
// reversible only through a privileged reopen.
type FinancialYear struct {
	shared.CompanyAggregateRoot
	StartDate  time.Time `gorm:"not null"`
	EndDate    time.Time `gorm:"not null"`
	IsCurrent  bool      `gorm:"not null;default:false;index"`
	IsClosed   bool      `gorm:"not null;default:false"`
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID `gorm:"type:uuid"`
	ReopenedAt *time.Time
	ReopenedBy *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (FinancialYear) TableName() string {
	return "financial_years"
}

// NewFinancialYear creates a new open financial year
func NewFinancialYear(companyID uuid.UUID, startDate, endDate time.Time) (*FinancialYear, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATES", "Start and end dates are required")
	}
	if !endDate.After(startDate) {
		return nil, shared.NewDomainError("INVALID_DATES", "End date must be after start date")
	}
	return &FinancialYear{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		StartDate:            startDate,
		EndDate:              endDate,
	}, nil
}

// Covers returns true if the date falls within the year, inclusive of both ends
func (fy *FinancialYear) Covers(date time.Time) bool {
	return !date.Before(fy.StartDate) && !date.After(fy.EndDate)
}

// Overlaps returns true if the inclusive range [start, end] shares at least
// one day with the year. Containment in either direction counts.
func (fy *FinancialYear) Overlaps(start, end time.Time) bool {
	return !fy.StartDate.After(end) && !start.After(fy.EndDate)
}

// EnsureOpen rejects a posting into a closed year unless an explicit,
// privilege-gated override was supplied by the caller.
func (fy *FinancialYear) EnsureOpen(allowClosed bool) error {
	if fy.IsClosed && !allowClosed {
		return ErrFinancialYearClosed
	}
	return nil
}

// Close flips the year to closed. Vouchers dated inside it are rejected from
// then on; reopening does not retroactively re-validate anything.
func (fy *FinancialYear) Close(closedBy uuid.UUID, at time.Time) error {
	if fy.IsClosed {
		return shared.NewDomainError("YEAR_ALREADY_CLOSED", "Financial year is already closed")
	}
	fy.IsClosed = true
	fy.ClosedAt = &at
	fy.ClosedBy = &closedBy
	fy.UpdatedAt = at
	fy.IncrementVersion()

	fy.AddDomainEvent(NewFinancialYearClosedEvent(fy, closedBy))
	return nil
}

// Reopen flips a closed year back to open
func (fy *FinancialYear) Reopen(reopenedBy uuid.UUID, at time.Time) error {
	if !fy.IsClosed {
		return shared.NewDomainError("YEAR_NOT_CLOSED", "Financial year is not closed")
	}
	fy.IsClosed = false
	fy.ReopenedAt = &at
	fy.ReopenedBy = &reopenedBy
	fy.UpdatedAt = at
	fy.IncrementVersion()

	fy.AddDomainEvent(NewFinancialYearReopenedEvent(fy, reopenedBy))
	return nil
}
