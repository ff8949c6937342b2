package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerAccountRepository implements ledger.LedgerAccountRepository using GORM
type GormLedgerAccountRepository struct {
	db *gorm.DB
}

// NewGormLedgerAccountRepository creates a new GormLedgerAccountRepository
func NewGormLedgerAccountRepository(db *gorm.DB) *GormLedgerAccountRepository {
	return &GormLedgerAccountRepository{db: db}
}

// FindByID retrieves an account by ID
func (r *GormLedgerAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.LedgerAccount, error) {
	var account ledger.LedgerAccount
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

// FindByIDs loads multiple accounts of one company keyed by ID. Any missing
// ID makes the whole lookup fail with shared.ErrNotFound.
func (r *GormLedgerAccountRepository) FindByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*ledger.LedgerAccount, error) {
	var accounts []*ledger.LedgerAccount
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Find(&accounts).Error
	if err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uuid.UUID]*ledger.LedgerAccount, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, shared.ErrNotFound
		}
	}
	return byID, nil
}

// Save inserts a new account
func (r *GormLedgerAccountRepository) Save(ctx context.Context, account *ledger.LedgerAccount) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}

// Ensure GormLedgerAccountRepository implements LedgerAccountRepository
var _ ledger.LedgerAccountRepository = (*GormLedgerAccountRepository)(nil)
