package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dietwithdee/internal/domain/consultation"
	"dietwithdee/internal/domain/profilelog"
)

// ProfileLogStore persists a user's calculator history.
type ProfileLogStore interface {
	Save(ctx context.Context, s profilelog.Snapshot) error
	ListByUser(ctx context.Context, userID string, limit int) ([]profilelog.Snapshot, error)
}

// SaveSnapshotInput is one calculator run to record.
type SaveSnapshotInput struct {
	UserID string
	Input  consultation.CalculatorInput
	Note   string
}

// ProfileDeps holds dependencies for the profile history use cases.
type ProfileDeps struct {
	Store ProfileLogStore
	Now   func() time.Time
}

// ExecuteSaveSnapshot runs the calculator and stores the result in the
// user's history.
// POST: Returns the stored snapshot with its computed metrics
func ExecuteSaveSnapshot(ctx context.Context, input SaveSnapshotInput, deps ProfileDeps) (profilelog.Snapshot, error) {
	m, err := consultation.Calculate(input.Input)
	if err != nil {
		return profilelog.Snapshot{}, err
	}
	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	snap := profilelog.Snapshot{
		ID:            uuid.New().String(),
		UserID:        input.UserID,
		WeightKg:      input.Input.WeightKg,
		HeightCm:      input.Input.HeightCm,
		BMI:           m.BMI,
		Category:      m.Category,
		DailyCalories: m.DailyCalories,
		Goal:          m.Goal,
		Note:          input.Note,
		CreatedAt:     now,
	}
	if err := snap.Validate(); err != nil {
		return profilelog.Snapshot{}, err
	}
	if err := deps.Store.Save(ctx, snap); err != nil {
		return profilelog.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// ExecuteListSnapshots returns a user's history, newest first. limit <= 0
// returns everything.
func ExecuteListSnapshots(ctx context.Context, userID string, limit int, deps ProfileDeps) ([]profilelog.Snapshot, error) {
	if userID == "" {
		return nil, profilelog.ErrEmptyUserID
	}
	list, err := deps.Store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if list == nil {
		list = []profilelog.Snapshot{}
	}
	return list, nil
}
