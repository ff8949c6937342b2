package ledger

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherType classifies vouchers for numbering: each (company, type,
// financial year) triple has its own gap-free sequence.
type VoucherType string

const (
	VoucherTypeJournal  VoucherType = "JOURNAL"
	VoucherTypePayment  VoucherType = "PAYMENT"
	VoucherTypeReceipt  VoucherType = "RECEIPT"
	VoucherTypeSales    VoucherType = "SALES"
	VoucherTypePurchase VoucherType = "PURCHASE"
	VoucherTypeContra   VoucherType = "CONTRA"
)

// IsValid checks if the voucher type is valid
func (t VoucherType) IsValid() bool {
	switch t {
	case VoucherTypeJournal, VoucherTypePayment, VoucherTypeReceipt,
		VoucherTypeSales, VoucherTypePurchase, VoucherTypeContra:
		return true
	}
	return false
}

// String returns the string representation
func (t VoucherType) String() string {
	return string(t)
}

// VoucherStatus represents the voucher lifecycle
type VoucherStatus string

const (
	VoucherStatusDraft     VoucherStatus = "DRAFT"
	VoucherStatusPosted    VoucherStatus = "POSTED"
	VoucherStatusCancelled VoucherStatus = "CANCELLED"
	VoucherStatusReversed  VoucherStatus = "REVERSED"
)

// String returns the string representation
func (s VoucherStatus) String() string {
	return string(s)
}

// StockDirection marks a voucher line as moving inventory in or out
type StockDirection string

const (
	// StockDirectionIssue consumes stock through the FIFO allocator
	StockDirectionIssue StockDirection = "ISSUE"
	// StockDirectionReceipt opens a fresh cost layer
	StockDirectionReceipt StockDirection = "RECEIPT"
)

// IsValid checks if the stock direction is valid
func (d StockDirection) IsValid() bool {
	return d == StockDirectionIssue || d == StockDirectionReceipt
}

// Invert returns the opposite direction
func (d StockDirection) Invert() StockDirection {
	if d == StockDirectionIssue {
		return StockDirectionReceipt
	}
	return StockDirectionIssue
}

// VoucherLine is a single debit or credit against a ledger account, optionally
// carrying a stock movement. Exactly one of Debit/Credit is non-zero.
type VoucherLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	VoucherID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	LedgerAccountID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Debit           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Credit          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockItemID     *uuid.UUID      `gorm:"type:uuid;index"`
	GodownID        *uuid.UUID      `gorm:"type:uuid"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockDirection  StockDirection  `gorm:"type:varchar(10)"`
	// BatchNumber labels the cost layer a RECEIPT line opens; generated when
	// empty. Ignored on ISSUE lines.
	BatchNumber string `gorm:"type:varchar(50)"`
	// ExpiryDate limits the lifetime of the cost layer a RECEIPT line opens
	ExpiryDate *time.Time
	// AmountFromStock marks a valuation-driven line: during posting its
	// amount is overwritten with the FIFO allocator's realized cost - the
	// line's own allocation cost for a stock issue line, the voucher's total
	// realized issue cost for a plain line. The caller-supplied amount is an
	// estimate fixing which side carries the value.
	AmountFromStock bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
}

// TableName returns the table name for GORM
func (VoucherLine) TableName() string {
	return "voucher_lines"
}

// HasStockMovement returns true if the line moves inventory
func (l *VoucherLine) HasStockMovement() bool {
	return l.StockItemID != nil
}

// IsDebit returns true if the line's non-zero side is the debit side
func (l *VoucherLine) IsDebit() bool {
	return !l.Debit.IsZero()
}

// SetAmount sets the line's non-zero side to the given amount, preserving
// which side carries the value. Used to fill valuation-driven amounts.
func (l *VoucherLine) SetAmount(amount decimal.Decimal) {
	if l.IsDebit() {
		l.Debit = amount
		return
	}
	l.Credit = amount
}

// Amount returns the value on the line's non-zero side
func (l *VoucherLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// validate checks structural line invariants
func (l *VoucherLine) validate() error {
	if l.LedgerAccountID == uuid.Nil {
		return shared.NewDomainError("INVALID_LINE", "Line ledger account is required")
	}
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return shared.NewDomainError("INVALID_LINE", "Line amounts cannot be negative")
	}
	debitSet := !l.Debit.IsZero()
	creditSet := !l.Credit.IsZero()
	if debitSet == creditSet {
		return shared.NewDomainError("INVALID_LINE", "Exactly one of debit or credit must be non-zero")
	}
	if l.HasStockMovement() {
		if l.GodownID == nil {
			return shared.NewDomainError("INVALID_LINE", "Stock line requires a godown")
		}
		if !l.Quantity.IsPositive() {
			return shared.NewDomainError("INVALID_LINE", "Stock line quantity must be positive")
		}
		if !l.StockDirection.IsValid() {
			return shared.NewDomainError("INVALID_LINE", "Stock line direction must be ISSUE or RECEIPT")
		}
		if l.AmountFromStock && l.StockDirection == StockDirectionReceipt {
			return shared.NewDomainError("INVALID_LINE", "Receipt lines price their own cost layer and cannot be valuation-driven")
		}
	}
	return nil
}

// Voucher is an atomic accounting transaction of balanced debit/credit lines.
// It is created DRAFT, becomes POSTED exactly once, and may later be flagged
// REVERSED by a separate, linked reversal voucher. A posted voucher is never
// mutated in place apart from the status flip.
type Voucher struct {
	shared.CompanyAggregateRoot
	VoucherType     VoucherType   `gorm:"type:varchar(20);not null;index"`
	Date            time.Time     `gorm:"not null;index"`
	FinancialYearID uuid.UUID     `gorm:"type:uuid;index"`
	Status          VoucherStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Number          int64         `gorm:"not null;default:0"`
	Narration       string        `gorm:"type:varchar(500)"`
	Lines           []VoucherLine `gorm:"foreignKey:VoucherID;references:ID"`
	PostedAt        *time.Time
	PostedBy        uuid.UUID  `gorm:"type:uuid"`
	ReversalOfID    *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	ReversedByID    *uuid.UUID `gorm:"type:uuid"`
	ReversalReason  string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Voucher) TableName() string {
	return "vouchers"
}

// NewVoucher creates a new draft voucher after structural validation.
// Balance validation is separate: valuation-driven amounts are only known
// after FIFO allocation.
func NewVoucher(companyID uuid.UUID, voucherType VoucherType, date time.Time, narration string, lines []VoucherLine) (*Voucher, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("INVALID_VOUCHER_TYPE", "Voucher type is not valid")
	}
	if date.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Voucher date is required")
	}
	if len(lines) < 2 {
		return nil, shared.NewDomainError("INVALID_LINES", "Voucher requires at least two lines")
	}

	v := &Voucher{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		VoucherType:          voucherType,
		Date:                 date,
		Status:               VoucherStatusDraft,
		Narration:            narration,
		Lines:                make([]VoucherLine, len(lines)),
	}
	for i := range lines {
		line := lines[i]
		if err := line.validate(); err != nil {
			return nil, err
		}
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.VoucherID = v.ID
		line.CreatedAt = time.Now()
		v.Lines[i] = line
	}
	return v, nil
}

// TotalDebit returns the sum of all debit amounts
func (v *Voucher) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for i := range v.Lines {
		total = total.Add(v.Lines[i].Debit)
	}
	return total
}

// TotalCredit returns the sum of all credit amounts
func (v *Voucher) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for i := range v.Lines {
		total = total.Add(v.Lines[i].Credit)
	}
	return total
}

// EnsureBalanced verifies total debits equal total credits with exact decimal
// comparison. No tolerance is applied.
func (v *Voucher) EnsureBalanced() error {
	if !v.TotalDebit().Equal(v.TotalCredit()) {
		return ErrUnbalancedVoucher
	}
	return nil
}

// TouchedAccountIDs returns the distinct ledger account IDs across all lines,
// sorted ascending. The sort fixes the lock-acquisition order so concurrent
// posts sharing accounts cannot deadlock.
func (v *Voucher) TouchedAccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(v.Lines))
	ids := make([]uuid.UUID, 0, len(v.Lines))
	for i := range v.Lines {
		id := v.Lines[i].LedgerAccountID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	SortUUIDs(ids)
	return ids
}

// AccountDelta returns the total debit and credit applied to one account
func (v *Voucher) AccountDelta(accountID uuid.UUID) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for i := range v.Lines {
		if v.Lines[i].LedgerAccountID == accountID {
			debit = debit.Add(v.Lines[i].Debit)
			credit = credit.Add(v.Lines[i].Credit)
		}
	}
	return debit, credit
}

// MarkPosted transitions the voucher to POSTED with its permanent number.
// A voucher is posted exactly once.
func (v *Voucher) MarkPosted(number int64, financialYearID, postedBy uuid.UUID, at time.Time) error {
	switch v.Status {
	case VoucherStatusPosted, VoucherStatusReversed:
		return ErrAlreadyPosted
	case VoucherStatusCancelled:
		return shared.NewDomainError("INVALID_STATE", "Cannot post a cancelled voucher")
	}
	if number <= 0 {
		return shared.NewDomainError("INVALID_NUMBER", "Voucher number must be positive")
	}
	v.Status = VoucherStatusPosted
	v.Number = number
	v.FinancialYearID = financialYearID
	v.PostedBy = postedBy
	v.PostedAt = &at
	v.UpdatedAt = at
	v.IncrementVersion()

	v.AddDomainEvent(NewVoucherPostedEvent(v))
	return nil
}

// MarkReversed flags a posted voucher as reversed by the given reversal
// voucher. Each voucher may be reversed at most once; the unique index on
// reversal_of_id backs this at the storage level.
func (v *Voucher) MarkReversed(reversalID uuid.UUID, at time.Time) error {
	if v.Status == VoucherStatusReversed {
		return ErrAlreadyReversed
	}
	if v.Status != VoucherStatusPosted {
		return ErrCannotReverseUnposted
	}
	v.Status = VoucherStatusReversed
	v.ReversedByID = &reversalID
	v.UpdatedAt = at
	v.IncrementVersion()

	v.AddDomainEvent(NewVoucherReversedEvent(v, reversalID))
	return nil
}

// BuildReversal produces a new draft voucher that is the structural inverse of
// this posted voucher: every line's debit and credit are swapped and stock
// movements are inverted. Reversing a stock issue opens a fresh cost layer
// rather than restoring the consumed batch, keeping the FIFO cost history
// monotonic.
func (v *Voucher) BuildReversal(date time.Time, reason string) (*Voucher, error) {
	if v.Status == VoucherStatusReversed {
		return nil, ErrAlreadyReversed
	}
	if v.Status != VoucherStatusPosted {
		return nil, ErrCannotReverseUnposted
	}

	lines := make([]VoucherLine, len(v.Lines))
	for i := range v.Lines {
		orig := v.Lines[i]
		line := VoucherLine{
			ID:              uuid.New(),
			LedgerAccountID: orig.LedgerAccountID,
			Debit:           orig.Credit,
			Credit:          orig.Debit,
			StockItemID:     orig.StockItemID,
			GodownID:        orig.GodownID,
			Quantity:        orig.Quantity,
		}
		if orig.HasStockMovement() {
			line.StockDirection = orig.StockDirection.Invert()
		}
		lines[i] = line
	}

	reversal, err := NewVoucher(v.CompanyID, v.VoucherType, date, fmt.Sprintf("Reversal of voucher %d: %s", v.Number, reason), lines)
	if err != nil {
		return nil, err
	}
	originalID := v.ID
	reversal.ReversalOfID = &originalID
	reversal.ReversalReason = reason
	return reversal, nil
}
