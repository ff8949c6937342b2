package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCompanyRepository implements ledger.CompanyRepository using GORM
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewGormCompanyRepository creates a new GormCompanyRepository
func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

// FindByID retrieves a company by ID
func (r *GormCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Company, error) {
	var company ledger.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &company, nil
}

// Save inserts a new company
func (r *GormCompanyRepository) Save(ctx context.Context, company *ledger.Company) error {
	return translateError(r.db.WithContext(ctx).Create(company).Error)
}

// Update persists changes to a company
func (r *GormCompanyRepository) Update(ctx context.Context, company *ledger.Company) error {
	return translateError(r.db.WithContext(ctx).Save(company).Error)
}

// Ensure GormCompanyRepository implements CompanyRepository
var _ ledger.CompanyRepository = (*GormCompanyRepository)(nil)
