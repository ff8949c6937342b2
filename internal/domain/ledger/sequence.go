package ledger

import (
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// VoucherSequence is the counter row behind gap-free voucher numbering. The
// repository increments it under a row lock inside the posting transaction,
// so an aborted post releases its number with the rollback and two
// concurrent successful posts never collide.
type VoucherSequence struct {
	shared.BaseEntity
	CompanyID       uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_sequence_key,priority:1"`
	VoucherType     VoucherType `gorm:"type:varchar(20);not null;uniqueIndex:idx_voucher_sequence_key,priority:2"`
	FinancialYearID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_voucher_sequence_key,priority:3"`
	NextNumber      int64       `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (VoucherSequence) TableName() string {
	return "voucher_sequences"
}

// NewVoucherSequence creates a counter starting at 1
func NewVoucherSequence(companyID uuid.UUID, voucherType VoucherType, yearID uuid.UUID) *VoucherSequence {
	return &VoucherSequence{
		BaseEntity:      shared.NewBaseEntity(),
		CompanyID:       companyID,
		VoucherType:     voucherType,
		FinancialYearID: yearID,
		NextNumber:      1,
	}
}

// Take returns the current number and advances the counter
func (s *VoucherSequence) Take() int64 {
	n := s.NextNumber
	s.NextNumber++
	return n
}
