package audit

import (
	"context"

	"github.com/google/uuid"
)

// AuditEntryRepository persists the append-only audit trail
type AuditEntryRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	ListByEntity(ctx context.Context, companyID, entityID uuid.UUID) ([]*AuditEntry, error)
}
