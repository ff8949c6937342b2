package audit

import (
	"maps"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditAction identifies what happened to the audited entity
type AuditAction string

const (
	ActionVoucherPosted      AuditAction = "VOUCHER_POSTED"
	ActionVoucherReversed    AuditAction = "VOUCHER_REVERSED"
	ActionYearClosed         AuditAction = "YEAR_CLOSED"
	ActionYearReopened       AuditAction = "YEAR_REOPENED"
	ActionAccountingLocked   AuditAction = "ACCOUNTING_LOCKED"
	ActionAccountingUnlocked AuditAction = "ACCOUNTING_UNLOCKED"
)

// IsValid checks whether the action is one of the known values
func (a AuditAction) IsValid() bool {
	switch a {
	case ActionVoucherPosted, ActionVoucherReversed,
		ActionYearClosed, ActionYearReopened,
		ActionAccountingLocked, ActionAccountingUnlocked:
		return true
	}
	return false
}

// AuditEntry records a state-changing accounting action. Entries are
// append-only; nothing updates or deletes them.
type AuditEntry struct {
	shared.BaseEntity
	CompanyID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Action     AuditAction    `gorm:"type:varchar(40);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(40);not null" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"entity_id"`
	ActorID    uuid.UUID      `gorm:"type:uuid;not null" json:"actor_id"`
	Before     map[string]any `gorm:"serializer:json" json:"before,omitempty"`
	After      map[string]any `gorm:"serializer:json" json:"after,omitempty"`
}

// NewAuditEntry creates a new audit entry
func NewAuditEntry(
	companyID uuid.UUID,
	action AuditAction,
	entityType string,
	entityID uuid.UUID,
	actorID uuid.UUID,
	before, after map[string]any,
) (*AuditEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid audit action")
	}
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Entity ID cannot be empty")
	}

	return &AuditEntry{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Before:     before,
		After:      after,
	}, nil
}

// GetBefore returns a copy of the snapshot taken before the action
func (e *AuditEntry) GetBefore() map[string]any {
	result := make(map[string]any, len(e.Before))
	maps.Copy(result, e.Before)
	return result
}

// GetAfter returns a copy of the snapshot taken after the action
func (e *AuditEntry) GetAfter() map[string]any {
	result := make(map[string]any, len(e.After))
	maps.Copy(result, e.After)
	return result
}
