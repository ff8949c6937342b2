package persistence

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialYearRepository implements ledger.FinancialYearRepository using GORM
type GormFinancialYearRepository struct {
	db *gorm.DB
}

// NewGormFinancialYearRepository creates a new GormFinancialYearRepository
func NewGormFinancialYearRepository(db *gorm.DB) *GormFinancialYearRepository {
	return &GormFinancialYearRepository{db: db}
}

// FindByID retrieves a financial year by ID
func (r *GormFinancialYearRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.FinancialYear, error) {
	var year ledger.FinancialYear
	err := r.db.WithContext(ctx).First(&year, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &year, nil
}

// FindCovering locates the year whose inclusive date range contains the date
func (r *GormFinancialYearRepository) FindCovering(ctx context.Context, companyID uuid.UUID, date time.Time) (*ledger.FinancialYear, error) {
	var year ledger.FinancialYear
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND start_date <= ? AND end_date >= ?", companyID, date, date).
		First(&year).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &year, nil
}

// FindOverlapping locates any year intersecting the inclusive range, which
// catches partial overlap and containment in either direction
func (r *GormFinancialYearRepository) FindOverlapping(ctx context.Context, companyID uuid.UUID, start, end time.Time) (*ledger.FinancialYear, error) {
	var year ledger.FinancialYear
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND start_date <= ? AND end_date >= ?", companyID, end, start).
		First(&year).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &year, nil
}

// FindCurrent retrieves the company's current financial year
func (r *GormFinancialYearRepository) FindCurrent(ctx context.Context, companyID uuid.UUID) (*ledger.FinancialYear, error) {
	var year ledger.FinancialYear
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND is_current = ?", companyID, true).
		First(&year).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &year, nil
}

// Save inserts a new financial year
func (r *GormFinancialYearRepository) Save(ctx context.Context, year *ledger.FinancialYear) error {
	return translateError(r.db.WithContext(ctx).Create(year).Error)
}

// Update persists changes to a financial year
func (r *GormFinancialYearRepository) Update(ctx context.Context, year *ledger.FinancialYear) error {
	return translateError(r.db.WithContext(ctx).Save(year).Error)
}

// MakeCurrent flags the year current after clearing the flag on every other
// year of the company, keeping at most one current year per company.
func (r *GormFinancialYearRepository) MakeCurrent(ctx context.Context, year *ledger.FinancialYear) error {
	err := r.db.WithContext(ctx).
		Model(&ledger.FinancialYear{}).
		Where("company_id = ? AND id <> ?", year.CompanyID, year.ID).
		Update("is_current", false).Error
	if err != nil {
		return translateError(err)
	}
	year.IsCurrent = true
	return translateError(r.db.WithContext(ctx).Save(year).Error)
}

// Ensure GormFinancialYearRepository implements FinancialYearRepository
var _ ledger.FinancialYearRepository = (*GormFinancialYearRepository)(nil)
