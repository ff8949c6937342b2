package persistence

import (
	"errors"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgLockNotAvailable is the SQLSTATE raised when a lock wait exceeds the
// lock_timeout set by the posting transaction scope
const pgLockNotAvailable = "55P03"

// translateError maps storage-level failures onto the domain error vocabulary.
// Lock-wait timeouts become the retriable ErrLockTimeout; everything else
// passes through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return ledger.ErrLockTimeout
	}
	return err
}
