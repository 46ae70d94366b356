package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/domain/audit"
)

// Audit list bounds.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
)

// AuditStore persists the admin activity log.
type AuditStore interface {
	Save(ctx context.Context, e audit.Event) error
	List(ctx context.Context, action audit.Action, limit int) ([]audit.Event, error)
}

// AuditDeps holds dependencies for the audit use cases.
type AuditDeps struct {
	Store AuditStore
	Now   func() time.Time
}

// ExecuteRecordAudit stamps and stores one admin action.
// PRE: e.Action is set
// POST: Stored event has a fresh ID and At = now
func ExecuteRecordAudit(ctx context.Context, e audit.Event, deps AuditDeps) (audit.Event, error) {
	e.ID = uuid.NewString()
	e.At = time.Now().UTC()
	if deps.Now != nil {
		e.At = deps.Now()
	}
	if err := e.Validate(); err != nil {
		return audit.Event{}, err
	}
	if err := deps.Store.Save(ctx, e); err != nil {
		return audit.Event{}, fmt.Errorf("save audit event: %w", err)
	}
	return e, nil
}

// ExecuteListAudit returns recent events, newest first. limit is clamped
// to (0, MaxAuditLimit] with DefaultAuditLimit for non-positive values.
func ExecuteListAudit(ctx context.Context, action audit.Action, limit int, deps AuditDeps) ([]audit.Event, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	limit = min(limit, MaxAuditLimit)
	list, err := deps.Store.List(ctx, action, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	if list == nil {
		list = []audit.Event{}
	}
	return list, nil
}
