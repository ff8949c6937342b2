package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/application/posting"
	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormPostingTransactionScope implements posting.TransactionScope using GORM
// transactions. Every posting runs inside one such scope: the balance,
// sequence and batch row locks it takes are released together on commit or
// rollback.
type GormPostingTransactionScope struct {
	db              *gorm.DB
	lockWaitTimeout time.Duration
}

// NewGormPostingTransactionScope creates a new GormPostingTransactionScope.
// A positive lockWaitTimeout bounds every lock wait inside the transaction;
// exceeding it surfaces as the retriable ledger.ErrLockTimeout.
func NewGormPostingTransactionScope(db *gorm.DB, lockWaitTimeout time.Duration) *GormPostingTransactionScope {
	return &GormPostingTransactionScope{db: db, lockWaitTimeout: lockWaitTimeout}
}

// Execute runs the given function within a database transaction
func (s *GormPostingTransactionScope) Execute(ctx context.Context, fn func(repos posting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockWaitTimeout > 0 {
			// SET LOCAL does not take bind parameters; the value is a
			// trusted duration from config. SET LOCAL scopes the timeout to
			// this transaction only.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockWaitTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return translateError(err)
			}
		}
		repos := &gormPostingRepositories{tx: tx}
		return fn(repos)
	})
}

// gormPostingRepositories provides access to all posting repositories within
// a transaction
type gormPostingRepositories struct {
	tx *gorm.DB
}

func (r *gormPostingRepositories) Vouchers() ledger.VoucherRepository {
	return NewGormVoucherRepository(r.tx)
}

func (r *gormPostingRepositories) Accounts() ledger.LedgerAccountRepository {
	return NewGormLedgerAccountRepository(r.tx)
}

func (r *gormPostingRepositories) Balances() ledger.LedgerBalanceRepository {
	return NewGormLedgerBalanceRepository(r.tx)
}

func (r *gormPostingRepositories) Years() ledger.FinancialYearRepository {
	return NewGormFinancialYearRepository(r.tx)
}

func (r *gormPostingRepositories) Companies() ledger.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormPostingRepositories) Sequences() ledger.VoucherSequenceRepository {
	return NewGormVoucherSequenceRepository(r.tx)
}

func (r *gormPostingRepositories) Idempotency() ledger.IdempotencyRecordRepository {
	return NewGormIdempotencyRecordRepository(r.tx)
}

func (r *gormPostingRepositories) Batches() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

func (r *gormPostingRepositories) StockBalances() inventory.StockBalanceRepository {
	return NewGormStockBalanceRepository(r.tx)
}

func (r *gormPostingRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormPostingRepositories) Audit() audit.AuditEntryRepository {
	return NewGormAuditEntryRepository(r.tx)
}

// Ensure GormPostingTransactionScope implements TransactionScope
var _ posting.TransactionScope = (*GormPostingTransactionScope)(nil)

// Ensure gormPostingRepositories implements TransactionalRepositories
var _ posting.TransactionalRepositories = (*gormPostingRepositories)(nil)
