package period

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

// CreateYearRequest opens a new financial year for a company
type CreateYearRequest struct {
	CompanyID   uuid.UUID `json:"company_id" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	MakeCurrent bool      `json:"make_current"`
}

// CheckDateRequest asks which financial year covers a posting date
type CheckDateRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	// AllowClosed permits a date inside a closed year; callers must
	// privilege-gate it
	AllowClosed bool `json:"allow_closed"`
}

// CloseYearRequest closes a financial year for posting
type CloseYearRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	YearID    uuid.UUID `json:"year_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
}

// ReopenYearRequest reopens a closed financial year
type ReopenYearRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	YearID    uuid.UUID `json:"year_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
}

// SetAccountingLockRequest flips the company-wide accounting lock
type SetAccountingLockRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
	ActorID   uuid.UUID `json:"actor_id" validate:"required"`
	Locked    bool      `json:"locked"`
}

// YearResponse represents a financial year in API responses
type YearResponse struct {
	ID         uuid.UUID  `json:"id"`
	CompanyID  uuid.UUID  `json:"company_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	IsCurrent  bool       `json:"is_current"`
	IsClosed   bool       `json:"is_closed"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ReopenedAt *time.Time `json:"reopened_at,omitempty"`
}

// ToYearResponse maps a domain financial year to its response representation
func ToYearResponse(fy *ledger.FinancialYear) *YearResponse {
	return &YearResponse{
		ID:         fy.ID,
		CompanyID:  fy.CompanyID,
		StartDate:  fy.StartDate,
		EndDate:    fy.EndDate,
		IsCurrent:  fy.IsCurrent,
		IsClosed:   fy.IsClosed,
		ClosedAt:   fy.ClosedAt,
		ReopenedAt: fy.ReopenedAt,
	}
}
