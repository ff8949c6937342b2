package posting

import (
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DraftLine is one requested voucher line. Exactly one of Debit/Credit must
// be non-zero; amount invariants are enforced by the domain, the struct tags
// only cover shape.
type DraftLine struct {
	LedgerAccountID uuid.UUID       `json:"ledger_account_id" validate:"required"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	StockItemID     *uuid.UUID      `json:"stock_item_id,omitempty"`
	GodownID        *uuid.UUID      `json:"godown_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	StockDirection  string          `json:"stock_direction,omitempty" validate:"omitempty,oneof=ISSUE RECEIPT"`
	BatchNumber     string          `json:"batch_number,omitempty" validate:"max=50"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	AmountFromStock bool            `json:"amount_from_stock"`
}

// PostVoucherRequest is a draft voucher submitted for posting
type PostVoucherRequest struct {
	CompanyID      uuid.UUID   `json:"company_id" validate:"required"`
	VoucherType    string      `json:"voucher_type" validate:"required,oneof=JOURNAL PAYMENT RECEIPT SALES PURCHASE CONTRA"`
	Date           time.Time   `json:"date" validate:"required"`
	Narration      string      `json:"narration" validate:"max=500"`
	Lines []DraftLine `json:"lines" validate:"required,min=2,dive"`
	// IdempotencyKey is optional. Without one the post is not deduplicated:
	// submitting the same draft twice posts two vouchers.
	IdempotencyKey string    `json:"idempotency_key" validate:"omitempty,max=100"`
	PostedBy       uuid.UUID `json:"posted_by" validate:"required"`
	// AllowClosedYear permits posting into a closed financial year. Callers
	// must privilege-gate this flag; the company accounting lock is never
	// overridable.
	AllowClosedYear bool `json:"allow_closed_year"`
}

// ReverseVoucherRequest asks for the structural inverse of a posted voucher
type ReverseVoucherRequest struct {
	CompanyID       uuid.UUID `json:"company_id" validate:"required"`
	VoucherID       uuid.UUID `json:"voucher_id" validate:"required"`
	Date            time.Time `json:"date" validate:"required"`
	Reason          string    `json:"reason" validate:"required,max=500"`
	IdempotencyKey  string    `json:"idempotency_key" validate:"omitempty,max=100"`
	RequestedBy     uuid.UUID `json:"requested_by" validate:"required"`
	AllowClosedYear bool      `json:"allow_closed_year"`
}

// VoucherLineResponse is one posted line in API responses
type VoucherLineResponse struct {
	ID              uuid.UUID       `json:"id"`
	LedgerAccountID uuid.UUID       `json:"ledger_account_id"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	StockItemID     *uuid.UUID      `json:"stock_item_id,omitempty"`
	GodownID        *uuid.UUID      `json:"godown_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	StockDirection  string          `json:"stock_direction,omitempty"`
}

// VoucherResponse represents a voucher in API responses
type VoucherResponse struct {
	ID              uuid.UUID             `json:"id"`
	CompanyID       uuid.UUID             `json:"company_id"`
	VoucherType     string                `json:"voucher_type"`
	Date            time.Time             `json:"date"`
	FinancialYearID uuid.UUID             `json:"financial_year_id"`
	Status          string                `json:"status"`
	Number          int64                 `json:"number"`
	Narration       string                `json:"narration"`
	Lines           []VoucherLineResponse `json:"lines"`
	PostedAt        *time.Time            `json:"posted_at,omitempty"`
	PostedBy        uuid.UUID             `json:"posted_by"`
	ReversalOfID    *uuid.UUID            `json:"reversal_of_id,omitempty"`
	ReversedByID    *uuid.UUID            `json:"reversed_by_id,omitempty"`
	// Replayed is true when an idempotent retry returned the prior result
	// instead of posting again
	Replayed bool `json:"replayed"`
}

// ToVoucherResponse maps a domain voucher to its response representation
func ToVoucherResponse(v *ledger.Voucher, replayed bool) *VoucherResponse {
	lines := make([]VoucherLineResponse, len(v.Lines))
	for i := range v.Lines {
		l := v.Lines[i]
		lines[i] = VoucherLineResponse{
			ID:              l.ID,
			LedgerAccountID: l.LedgerAccountID,
			Debit:           l.Debit,
			Credit:          l.Credit,
			StockItemID:     l.StockItemID,
			GodownID:        l.GodownID,
			Quantity:        l.Quantity,
			StockDirection:  string(l.StockDirection),
		}
	}
	return &VoucherResponse{
		ID:              v.ID,
		CompanyID:       v.CompanyID,
		VoucherType:     v.VoucherType.String(),
		Date:            v.Date,
		FinancialYearID: v.FinancialYearID,
		Status:          v.Status.String(),
		Number:          v.Number,
		Narration:       v.Narration,
		Lines:           lines,
		PostedAt:        v.PostedAt,
		PostedBy:        v.PostedBy,
		ReversalOfID:    v.ReversalOfID,
		ReversedByID:    v.ReversedByID,
		Replayed:        replayed,
	}
}

// BalanceQuery identifies one running balance
type BalanceQuery struct {
	CompanyID       uuid.UUID `json:"company_id" validate:"required"`
	LedgerAccountID uuid.UUID `json:"ledger_account_id" validate:"required"`
	FinancialYearID uuid.UUID `json:"financial_year_id" validate:"required"`
}

// BalanceResponse is a read-only running balance snapshot
type BalanceResponse struct {
	CompanyID       uuid.UUID       `json:"company_id"`
	LedgerAccountID uuid.UUID       `json:"ledger_account_id"`
	FinancialYearID uuid.UUID       `json:"financial_year_id"`
	RunningBalance  decimal.Decimal `json:"running_balance"`
}
