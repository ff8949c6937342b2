package posting

import (
	"context"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/erp/ledger/internal/domain/ledger"
)

// TransactionScope provides transactional access to the posting repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to every repository the posting
// pipeline touches. All repositories returned share the same underlying
// database transaction, which is what makes step-by-step row locking safe:
// locks taken through any of them are held until the scope commits or rolls
// back.
type TransactionalRepositories interface {
	Vouchers() ledger.VoucherRepository
	Accounts() ledger.LedgerAccountRepository
	Balances() ledger.LedgerBalanceRepository
	Years() ledger.FinancialYearRepository
	Companies() ledger.CompanyRepository
	Sequences() ledger.VoucherSequenceRepository
	Idempotency() ledger.IdempotencyRecordRepository
	Batches() inventory.StockBatchRepository
	StockBalances() inventory.StockBalanceRepository
	Movements() inventory.StockMovementRepository
	Audit() audit.AuditEntryRepository
}
