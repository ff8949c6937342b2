package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/application/posting"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a GORM connection backed by sqlmock so the emitted
// Postgres SQL can be asserted, locking clauses included.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormStockBatchRepository_FindAvailableForUpdate(t *testing.T) {
	t.Run("locks unexhausted layers oldest first", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockBatchRepository(db)

		companyID := uuid.New()
		itemID := uuid.New()
		godownID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "company_id", "stock_item_id", "godown_id", "batch_number", "quantity_remaining", "unit_cost"}).
			AddRow(uuid.New(), companyID, itemID, godownID, "B-1", "30", "10")

		mock.ExpectQuery(`SELECT \* FROM "stock_batches" WHERE company_id = \$1 AND stock_item_id = \$2 AND godown_id = \$3 AND quantity_remaining > 0 ORDER BY received_date ASC, created_at ASC FOR UPDATE`).
			WithArgs(companyID, itemID, godownID).
			WillReturnRows(rows)

		batches, err := repo.FindAvailableForUpdate(context.Background(), companyID, itemID, godownID)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "B-1", batches[0].BatchNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock wait timeout surfaces as retriable error", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockBatchRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "stock_batches"`).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		_, err := repo.FindAvailableForUpdate(context.Background(), uuid.New(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ledger.ErrLockTimeout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLedgerBalanceRepository_FindOrCreateForUpdate(t *testing.T) {
	t.Run("first touch inserts tolerating a concurrent creator", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormLedgerBalanceRepository(db)

		companyID := uuid.New()
		accountID := uuid.New()
		yearID := uuid.New()

		// no row yet, then the insert loses the unique-key race, then the
		// winner's row is locked. DO NOTHING is what keeps the transaction
		// alive after the lost race.
		mock.ExpectQuery(`SELECT \* FROM "ledger_balances" WHERE company_id = \$1 AND ledger_account_id = \$2 AND financial_year_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO "ledger_balances" .* ON CONFLICT \("company_id","ledger_account_id","financial_year_id"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "ledger_balances" WHERE company_id = \$1 AND ledger_account_id = \$2 AND financial_year_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "ledger_account_id", "financial_year_id", "running_balance"}).
				AddRow(uuid.New(), companyID, accountID, yearID, "42"))

		balance, err := repo.FindOrCreateForUpdate(context.Background(), companyID, accountID, yearID)
		require.NoError(t, err)
		assert.True(t, balance.RunningBalance.Equal(decimal.NewFromInt(42)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockBalanceRepository_FindOrCreateForUpdate(t *testing.T) {
	t.Run("first movement of a pair inserts tolerating a concurrent creator", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockBalanceRepository(db)

		companyID := uuid.New()
		itemID := uuid.New()
		godownID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_balances" WHERE company_id = \$1 AND stock_item_id = \$2 AND godown_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO "stock_balances" .* ON CONFLICT \("company_id","stock_item_id","godown_id"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "stock_balances" WHERE company_id = \$1 AND stock_item_id = \$2 AND godown_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "stock_item_id", "godown_id", "quantity_on_hand"}).
				AddRow(uuid.New(), companyID, itemID, godownID, "80"))

		balance, err := repo.FindOrCreateForUpdate(context.Background(), companyID, itemID, godownID)
		require.NoError(t, err)
		assert.True(t, balance.QuantityOnHand.Equal(decimal.NewFromInt(80)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormVoucherSequenceRepository_Next(t *testing.T) {
	t.Run("takes the current number under a row lock", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVoucherSequenceRepository(db)

		companyID := uuid.New()
		yearID := uuid.New()
		seqID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "company_id", "voucher_type", "financial_year_id", "next_number"}).
			AddRow(seqID, companyID, "SALES", yearID, 7)

		mock.ExpectQuery(`SELECT \* FROM "voucher_sequences" WHERE company_id = \$1 AND voucher_type = \$2 AND financial_year_id = \$3 ORDER BY .* FOR UPDATE`).
			WithArgs(companyID, "SALES", yearID, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "voucher_sequences" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		number, err := repo.Next(context.Background(), companyID, ledger.VoucherTypeSales, yearID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first use creates the counter tolerating a concurrent creator", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVoucherSequenceRepository(db)

		companyID := uuid.New()
		yearID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "voucher_sequences" WHERE company_id = \$1 AND voucher_type = \$2 AND financial_year_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`INSERT INTO "voucher_sequences" .* ON CONFLICT \("company_id","voucher_type","financial_year_id"\) DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "voucher_sequences" WHERE company_id = \$1 AND voucher_type = \$2 AND financial_year_id = \$3 .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "voucher_type", "financial_year_id", "next_number"}).
				AddRow(uuid.New(), companyID, "SALES", yearID, 1))
		mock.ExpectExec(`UPDATE "voucher_sequences" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		number, err := repo.Next(context.Background(), companyID, ledger.VoucherTypeSales, yearID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormVoucherRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the voucher row", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVoucherRepository(db)

		voucherID := uuid.New()
		companyID := uuid.New()

		voucherRows := sqlmock.NewRows([]string{"id", "company_id", "voucher_type", "status", "number"}).
			AddRow(voucherID, companyID, "JOURNAL", "POSTED", 3)
		lineRows := sqlmock.NewRows([]string{"id", "voucher_id", "ledger_account_id", "debit", "credit"})

		mock.ExpectQuery(`SELECT \* FROM "vouchers" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(voucherID, 1).
			WillReturnRows(voucherRows)
		mock.ExpectQuery(`SELECT \* FROM "voucher_lines" WHERE "voucher_lines"\."voucher_id" = \$1`).
			WithArgs(voucherID).
			WillReturnRows(lineRows)

		voucher, err := repo.FindByIDForUpdate(context.Background(), voucherID)
		require.NoError(t, err)
		assert.Equal(t, ledger.VoucherStatusPosted, voucher.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPostingTransactionScope(t *testing.T) {
	t.Run("bounds lock waits for the transaction", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormPostingTransactionScope(db, 5*time.Second)

		mock.ExpectBegin()
		mock.ExpectExec(`SET LOCAL lock_timeout = '5000ms'`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		var repos posting.TransactionalRepositories
		err := scope.Execute(context.Background(), func(r posting.TransactionalRepositories) error {
			repos = r
			return nil
		})
		require.NoError(t, err)
		assert.NotNil(t, repos.Vouchers())
		assert.NotNil(t, repos.Sequences())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the timeout statement when unset", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormPostingTransactionScope(db, 0)

		mock.ExpectBegin()
		mock.ExpectCommit()

		err := scope.Execute(context.Background(), func(posting.TransactionalRepositories) error {
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		scope := NewGormPostingTransactionScope(db, 0)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := scope.Execute(context.Background(), func(posting.TransactionalRepositories) error {
			return ledger.ErrUnbalancedVoucher
		})
		assert.ErrorIs(t, err, ledger.ErrUnbalancedVoucher)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
