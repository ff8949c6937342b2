package period

import (
	"context"

	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/ledger"
)

// TransactionScope provides transactional access to the period repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories the financial
// year guard touches within one transaction
type TransactionalRepositories interface {
	Years() ledger.FinancialYearRepository
	Companies() ledger.CompanyRepository
	Audit() audit.AuditEntryRepository
}
