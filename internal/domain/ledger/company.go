package ledger

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// Company carries the company-wide accounting lock flag. The flag is checked
// before financial year resolution on every post and overrides year state.
type Company struct {
	shared.BaseAggregateRoot
	Name             string `gorm:"type:varchar(200);not null"`
	AccountingLocked bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a new company
func NewCompany(name string) (*Company, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_COMPANY_NAME", "Company name cannot be empty")
	}
	return &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
	}, nil
}

// EnsurePostingAllowed rejects postings while the accounting lock is set
func (c *Company) EnsurePostingAllowed() error {
	if c.AccountingLocked {
		return ErrAccountingLocked
	}
	return nil
}

// LockAccounting blocks all postings company-wide
func (c *Company) LockAccounting() {
	c.AccountingLocked = true
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// UnlockAccounting lifts the company-wide posting lock
func (c *Company) UnlockAccounting() {
	c.AccountingLocked = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
