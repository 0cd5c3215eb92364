package jobcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/johnquangdev/video-dubber/errors"
)

type KeyContext string

var (
	keyDubID        KeyContext = "dub_id"
	keyWorkerID     KeyContext = "worker_id"
	keyRunStartTime KeyContext = "run_start_time"
)

// RunMetadata holds metadata for one pipeline run
type RunMetadata struct {
	DubID     uuid.UUID
	WorkerID  int
	StartTime time.Time
}

// RunBegin derives a run context carrying the dub id and worker slot.
// A timeout <= 0 leaves the parent deadline untouched.
func RunBegin(parentCtx context.Context, dubID uuid.UUID, workerID int, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := parentCtx, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	}

	ctx = context.WithValue(ctx, keyDubID, dubID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, cancel
}

// GetDubID extracts the dub id from context
func GetDubID(ctx context.Context) (uuid.UUID, bool) {
	dubID, ok := ctx.Value(keyDubID).(uuid.UUID)
	return dubID, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	dubID, _ := GetDubID(ctx)
	startTime, _ := GetRunStartTime(ctx)

	return &RunMetadata{
		DubID:     dubID,
		WorkerID:  GetWorkerID(ctx),
		StartTime: startTime,
	}
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, timeouts, rate limits, 5xx
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if appErr, ok := apperrors.As(err); ok && appErr.Retryable() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
