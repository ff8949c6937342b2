package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// IdempotencyRecord maps a client-supplied key to the voucher its first
// successful posting produced. The unique constraint on (company_id, key)
// makes the first committer win; later callers replay the stored result or,
// when the payload hash differs, fail with a conflict.
type IdempotencyRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_company_key,priority:1"`
	Key         string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_idempotency_company_key,priority:2"`
	PayloadHash string    `gorm:"type:varchar(64);not null"`
	VoucherID   uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}

// NewIdempotencyRecord creates a record binding key and payload hash to a result voucher
func NewIdempotencyRecord(companyID uuid.UUID, key, payloadHash string, voucherID uuid.UUID) (*IdempotencyRecord, error) {
	if key == "" {
		return nil, shared.NewDomainError("INVALID_KEY", "Idempotency key cannot be empty")
	}
	if payloadHash == "" {
		return nil, shared.NewDomainError("INVALID_HASH", "Payload hash cannot be empty")
	}
	return &IdempotencyRecord{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Key:         key,
		PayloadHash: payloadHash,
		VoucherID:   voucherID,
		CreatedAt:   time.Now(),
	}, nil
}

// Matches returns true if a retry carries the same payload as the original
func (r *IdempotencyRecord) Matches(payloadHash string) bool {
	return r.PayloadHash == payloadHash
}
