package ledger

import "github.com/erp/ledger/internal/domain/shared"

// Posting and reversal errors. Validation and state errors are rejected with
// zero side effects; ErrLockTimeout is the one retriable error. An
// idempotency race has no sentinel of its own: the losing transaction reruns
// and replays the winner's committed result.
var (
	ErrUnbalancedVoucher     = shared.NewDomainError("UNBALANCED_VOUCHER", "Voucher debits and credits are not equal")
	ErrAlreadyPosted         = shared.NewDomainError("ALREADY_POSTED", "Voucher has already been posted")
	ErrAlreadyReversed       = shared.NewDomainError("ALREADY_REVERSED", "Voucher has already been reversed")
	ErrCannotReverseUnposted = shared.NewDomainError("CANNOT_REVERSE_UNPOSTED", "Only posted vouchers can be reversed")
	ErrFinancialYearNotFound = shared.NewDomainError("FINANCIAL_YEAR_NOT_FOUND", "No financial year covers the posting date")
	ErrFinancialYearClosed   = shared.NewDomainError("FINANCIAL_YEAR_CLOSED", "Financial year is closed for posting")
	ErrAccountingLocked      = shared.NewDomainError("ACCOUNTING_LOCKED", "Company accounting is locked")
	ErrIdempotencyConflict   = shared.NewDomainError("IDEMPOTENCY_CONFLICT", "Idempotency key was reused with a different payload")
	ErrLockTimeout           = shared.NewDomainError("LOCK_TIMEOUT", "Timed out waiting for a row lock")
)
