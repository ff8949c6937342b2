package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSide is the natural sign convention of a ledger account. It is an
// explicit attribute consulted by SignedDelta, never inferred from account
// names or hard-coded per call site.
type BalanceSide string

const (
	// BalanceSideDebit means debits increase the running balance (assets, expenses)
	BalanceSideDebit BalanceSide = "DEBIT"
	// BalanceSideCredit means credits increase the running balance (liabilities, income, equity)
	BalanceSideCredit BalanceSide = "CREDIT"
)

// IsValid returns true if the balance side is valid
func (s BalanceSide) IsValid() bool {
	return s == BalanceSideDebit || s == BalanceSideCredit
}

// String returns the string representation
func (s BalanceSide) String() string {
	return string(s)
}

// SignedDelta converts a line's debit/credit pair into the signed movement of
// the running balance for an account with the given natural side.
func SignedDelta(side BalanceSide, debit, credit decimal.Decimal) decimal.Decimal {
	if side == BalanceSideCredit {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// LedgerAccount is chart-of-accounts metadata consumed by the posting core.
// Master-data maintenance of accounts lives outside this module.
type LedgerAccount struct {
	shared.CompanyAggregateRoot
	Name string      `gorm:"type:varchar(200);not null"`
	Code string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_ledger_account_company_code,priority:2"`
	Side BalanceSide `gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// NewLedgerAccount creates a new ledger account
func NewLedgerAccount(companyID uuid.UUID, code, name string, side BalanceSide) (*LedgerAccount, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_NAME", "Account name cannot be empty")
	}
	if !side.IsValid() {
		return nil, shared.NewDomainError("INVALID_BALANCE_SIDE", "Balance side must be DEBIT or CREDIT")
	}
	return &LedgerAccount{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		Code:                 code,
		Side:                 side,
	}, nil
}

// LedgerBalance is the running balance of one ledger account within one
// financial year. It is mutated only inside the posting transaction while the
// row lock is held.
type LedgerBalance struct {
	shared.BaseEntity
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_balance_key,priority:1"`
	LedgerAccountID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_balance_key,priority:2"`
	FinancialYearID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_ledger_balance_key,priority:3"`
	OpeningBalance  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RunningBalance  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (LedgerBalance) TableName() string {
	return "ledger_balances"
}

// NewLedgerBalance creates a balance row with the given opening balance
func NewLedgerBalance(companyID, accountID, yearID uuid.UUID, opening decimal.Decimal) *LedgerBalance {
	return &LedgerBalance{
		BaseEntity:      shared.NewBaseEntity(),
		CompanyID:       companyID,
		LedgerAccountID: accountID,
		FinancialYearID: yearID,
		OpeningBalance:  opening,
		RunningBalance:  opening,
	}
}

// Apply moves the running balance by the signed delta
func (b *LedgerBalance) Apply(delta decimal.Decimal) {
	b.RunningBalance = b.RunningBalance.Add(delta)
	b.UpdatedAt = time.Now()
}
