package orchestrators

import (
	"context"
	"errors"
	"testing"

	"dietwithdee/internal/domain/audit"
)

type memAudit struct {
	events    []audit.Event
	lastLimit int
}

func (m *memAudit) Save(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memAudit) List(_ context.Context, action audit.Action, limit int) ([]audit.Event, error) {
	m.lastLimit = limit
	var out []audit.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || m.events[i].Action == action {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func TestExecuteRecordAudit(t *testing.T) {
	store := &memAudit{}
	deps := AuditDeps{Store: store, Now: fixedClock(t0)}

	e, err := ExecuteRecordAudit(context.Background(), audit.Event{
		Action:     audit.ActionArticleDelete,
		ActorID:    "acct-1",
		ResourceID: "7",
	}, deps)
	if err != nil {
		t.Fatalf("ExecuteRecordAudit: %v", err)
	}
	if e.ID == "" || !e.At.Equal(t0) || len(store.events) != 1 {
		t.Errorf("event = %+v, stored %d", e, len(store.events))
	}

	if _, err := ExecuteRecordAudit(context.Background(), audit.Event{}, deps); !errors.Is(err, audit.ErrEmptyAction) {
		t.Errorf("empty action err = %v", err)
	}
	if len(store.events) != 1 {
		t.Error("invalid event reached the store")
	}
}

func TestExecuteListAudit_ClampsLimit(t *testing.T) {
	store := &memAudit{}
	deps := AuditDeps{Store: store}

	list, err := ExecuteListAudit(context.Background(), "", 0, deps)
	if err != nil || list == nil || store.lastLimit != DefaultAuditLimit {
		t.Errorf("default: list=%v err=%v limit=%d", list, err, store.lastLimit)
	}
	if _, err := ExecuteListAudit(context.Background(), "", 10_000, deps); err != nil || store.lastLimit != MaxAuditLimit {
		t.Errorf("max: err=%v limit=%d", err, store.lastLimit)
	}
}
