package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherPostedEvent is raised when a voucher is durably posted
type VoucherPostedEvent struct {
	shared.BaseDomainEvent
	VoucherID       uuid.UUID       `json:"voucher_id"`
	VoucherType     VoucherType     `json:"voucher_type"`
	Number          int64           `json:"number"`
	Date            time.Time       `json:"date"`
	FinancialYearID uuid.UUID       `json:"financial_year_id"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	PostedBy        uuid.UUID       `json:"posted_by"`
}

// EventType returns the event type name
func (e *VoucherPostedEvent) EventType() string {
	return "VoucherPosted"
}

// NewVoucherPostedEvent creates a new VoucherPostedEvent
func NewVoucherPostedEvent(v *Voucher) *VoucherPostedEvent {
	return &VoucherPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("VoucherPosted", "Voucher", v.ID, v.CompanyID),
		VoucherID:       v.ID,
		VoucherType:     v.VoucherType,
		Number:          v.Number,
		Date:            v.Date,
		FinancialYearID: v.FinancialYearID,
		TotalDebit:      v.TotalDebit(),
		PostedBy:        v.PostedBy,
	}
}

// VoucherReversedEvent is raised when a posted voucher is reversed
type VoucherReversedEvent struct {
	shared.BaseDomainEvent
	VoucherID  uuid.UUID `json:"voucher_id"`
	ReversalID uuid.UUID `json:"reversal_id"`
	Number     int64     `json:"number"`
}

// EventType returns the event type name
func (e *VoucherReversedEvent) EventType() string {
	return "VoucherReversed"
}

// NewVoucherReversedEvent creates a new VoucherReversedEvent
func NewVoucherReversedEvent(v *Voucher, reversalID uuid.UUID) *VoucherReversedEvent {
	return &VoucherReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("VoucherReversed", "Voucher", v.ID, v.CompanyID),
		VoucherID:       v.ID,
		ReversalID:      reversalID,
		Number:          v.Number,
	}
}

// FinancialYearClosedEvent is raised when a financial year is closed
type FinancialYearClosedEvent struct {
	shared.BaseDomainEvent
	FinancialYearID uuid.UUID `json:"financial_year_id"`
	ClosedBy        uuid.UUID `json:"closed_by"`
}

// EventType returns the event type name
func (e *FinancialYearClosedEvent) EventType() string {
	return "FinancialYearClosed"
}

// NewFinancialYearClosedEvent creates a new FinancialYearClosedEvent
func NewFinancialYearClosedEvent(fy *FinancialYear, closedBy uuid.UUID) *FinancialYearClosedEvent {
	return &FinancialYearClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialYearClosed", "FinancialYear", fy.ID, fy.CompanyID),
		FinancialYearID: fy.ID,
		ClosedBy:        closedBy,
	}
}

// FinancialYearReopenedEvent is raised when a closed financial year is reopened
type FinancialYearReopenedEvent struct {
	shared.BaseDomainEvent
	FinancialYearID uuid.UUID `json:"financial_year_id"`
	ReopenedBy      uuid.UUID `json:"reopened_by"`
}

// EventType returns the event type name
func (e *FinancialYearReopenedEvent) EventType() string {
	return "FinancialYearReopened"
}

// NewFinancialYearReopenedEvent creates a new FinancialYearReopenedEvent
func NewFinancialYearReopenedEvent(fy *FinancialYear, reopenedBy uuid.UUID) *FinancialYearReopenedEvent {
	return &FinancialYearReopenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("FinancialYearReopened", "FinancialYear", fy.ID, fy.CompanyID),
		FinancialYearID: fy.ID,
		ReopenedBy:      reopenedBy,
	}
}
