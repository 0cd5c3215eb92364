package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const progressTTL = 24 * time.Hour

// Progress is the last reported position of a pipeline run
type Progress struct {
	Stage     string    `json:"stage"`
	Percent   int       `json:"percent"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressTracker stores run progress under dub:progress:<id>
type ProgressTracker struct {
	store Store
	now   func() time.Time
}

// NewProgressTracker creates a tracker over any Store
func NewProgressTracker(store Store) *ProgressTracker {
	return &ProgressTracker{store: store, now: time.Now}
}

// Report records stage and percent for a run. Percent is clamped to [0, 100].
func (t *ProgressTracker) Report(ctx context.Context, dubID, stage string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	payload, err := json.Marshal(Progress{Stage: stage, Percent: percent, UpdatedAt: t.now().UTC()})
	if err != nil {
		return err
	}
	return t.store.Set(ctx, progressKey(dubID), string(payload), progressTTL)
}

// Get returns the last reported progress, false when nothing was reported
func (t *ProgressTracker) Get(ctx context.Context, dubID string) (Progress, bool, error) {
	raw, ok, err := t.store.Get(ctx, progressKey(dubID))
	if err != nil || !ok {
		return Progress{}, false, err
	}

	var p Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Progress{}, false, fmt.Errorf("corrupt progress for %s: %w", dubID, err)
	}
	return p, true, nil
}

func progressKey(dubID string) string {
	return fmt.Sprintf("dub:progress:%s", dubID)
}
