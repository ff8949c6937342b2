package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherRepository persists vouchers with their lines
type VoucherRepository interface {
	// FindByID loads a voucher with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Voucher, error)
	// FindByIDForUpdate loads a voucher with its lines under a row lock,
	// serializing concurrent reversals of the same voucher
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Voucher, error)
	// Save inserts a new voucher and its lines
	Save(ctx context.Context, voucher *Voucher) error
	// Update persists lifecycle changes (status, number, stamps)
	Update(ctx context.Context, voucher *Voucher) error
}

// LedgerAccountRepository reads chart-of-accounts metadata, including each
// account's natural balance side
type LedgerAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LedgerAccount, error)
	// FindByIDs loads multiple accounts; missing IDs are an error
	FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*LedgerAccount, error)
	Save(ctx context.Context, account *LedgerAccount) error
}

// LedgerBalanceRepository stores running balances per (company, account, year)
type LedgerBalanceRepository interface {
	Find(ctx context.Context, companyID, accountID, yearID uuid.UUID) (*LedgerBalance, error)
	// FindOrCreateForUpdate acquires the balance row lock, creating a zero
	// balance row when the account has not been touched this year. Lock waits
	// are bounded; exceeding the bound surfaces ErrLockTimeout.
	FindOrCreateForUpdate(ctx context.Context, companyID, accountID, yearID uuid.UUID) (*LedgerBalance, error)
	Save(ctx context.Context, balance *LedgerBalance) error
	// CurrentBalance returns the running balance, zero when no row exists
	CurrentBalance(ctx context.Context, companyID, accountID, yearID uuid.UUID) (decimal.Decimal, error)
}

// FinancialYearRepository locates and persists financial years
type FinancialYearRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialYear, error)
	// FindCovering locates the year containing the date; shared.ErrNotFound
	// when no year covers it
	FindCovering(ctx context.Context, companyID uuid.UUID, date time.Time) (*FinancialYear, error)
	// FindOverlapping locates any year intersecting the inclusive range
	// [start, end], containment included; shared.ErrNotFound when none does
	FindOverlapping(ctx context.Context, companyID uuid.UUID, start, end time.Time) (*FinancialYear, error)
	FindCurrent(ctx context.Context, companyID uuid.UUID) (*FinancialYear, error)
	Save(ctx context.Context, year *FinancialYear) error
	Update(ctx context.Context, year *FinancialYear) error
	// MakeCurrent flags the year current and clears the flag on every other
	// year of the company in the same statement, preserving the at-most-one
	// invariant at write time
	MakeCurrent(ctx context.Context, year *FinancialYear) error
}

// CompanyRepository reads the company row carrying the accounting lock flag
type CompanyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Save(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
}

// VoucherSequenceRepository hands out voucher numbers under a row lock
type VoucherSequenceRepository interface {
	// Next increments the counter for the triple inside the current
	// transaction and returns the taken number
	Next(ctx context.Context, companyID uuid.UUID, voucherType VoucherType, yearID uuid.UUID) (int64, error)
}

// IdempotencyRecordRepository stores posting idempotency records
type IdempotencyRecordRepository interface {
	// Find returns the record for (company, key), or nil when absent
	Find(ctx context.Context, companyID uuid.UUID, key string) (*IdempotencyRecord, error)
	// Create inserts the record; shared.ErrAlreadyExists when another
	// transaction committed the same (company, key) first
	Create(ctx context.Context, record *IdempotencyRecord) error
}
