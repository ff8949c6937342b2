package stock

import (
	"context"

	"github.com/erp/ledger/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock repositories.
// All repository operations inside Execute share one database transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the inventory repositories
// within a transaction
type TransactionalRepositories interface {
	Batches() inventory.StockBatchRepository
	StockBalances() inventory.StockBalanceRepository
	Movements() inventory.StockMovementRepository
}
