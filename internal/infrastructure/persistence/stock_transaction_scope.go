package persistence

import (
	"context"

	"github.com/erp/ledger/internal/application/stock"
	"github.com/erp/ledger/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormStockTransactionScope implements stock.TransactionScope using GORM
// transactions
type GormStockTransactionScope struct {
	db *gorm.DB
}

// NewGormStockTransactionScope creates a new GormStockTransactionScope
func NewGormStockTransactionScope(db *gorm.DB) *GormStockTransactionScope {
	return &GormStockTransactionScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormStockTransactionScope) Execute(ctx context.Context, fn func(repos stock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormStockRepositories{tx: tx}
		return fn(repos)
	})
}

// gormStockRepositories provides access to the inventory repositories within
// a transaction
type gormStockRepositories struct {
	tx *gorm.DB
}

func (r *gormStockRepositories) Batches() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

func (r *gormStockRepositories) StockBalances() inventory.StockBalanceRepository {
	return NewGormStockBalanceRepository(r.tx)
}

func (r *gormStockRepositories) Movements() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Ensure GormStockTransactionScope implements TransactionScope
var _ stock.TransactionScope = (*GormStockTransactionScope)(nil)

// Ensure gormStockRepositories implements TransactionalRepositories
var _ stock.TransactionalRepositories = (*gormStockRepositories)(nil)
