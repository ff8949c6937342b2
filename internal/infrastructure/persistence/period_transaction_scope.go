package persistence

import (
	"context"

	"github.com/erp/ledger/internal/application/period"
	"github.com/erp/ledger/internal/domain/audit"
	"github.com/erp/ledger/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormPeriodTransactionScope implements period.TransactionScope using GORM
// transactions
type GormPeriodTransactionScope struct {
	db *gorm.DB
}

// NewGormPeriodTransactionScope creates a new GormPeriodTransactionScope
func NewGormPeriodTransactionScope(db *gorm.DB) *GormPeriodTransactionScope {
	return &GormPeriodTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormPeriodTransactionScope) Execute(ctx context.Context, fn func(repos period.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormPeriodRepositories{tx: tx}
		return fn(repos)
	})
}

// gormPeriodRepositories provides access to the calendar repositories within
// a transaction
type gormPeriodRepositories struct {
	tx *gorm.DB
}

func (r *gormPeriodRepositories) Years() ledger.FinancialYearRepository {
	return NewGormFinancialYearRepository(r.tx)
}

func (r *gormPeriodRepositories) Companies() ledger.CompanyRepository {
	return NewGormCompanyRepository(r.tx)
}

func (r *gormPeriodRepositories) Audit() audit.AuditEntryRepository {
	return NewGormAuditEntryRepository(r.tx)
}

// Ensure GormPeriodTransactionScope implements TransactionScope
var _ period.TransactionScope = (*GormPeriodTransactionScope)(nil)

// Ensure gormPeriodRepositories implements TransactionalRepositories
var _ period.TransactionalRepositories = (*gormPeriodRepositories)(nil)
