package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/video-dubber/errors"
)

// CommandRunner executes name with args inside dir
type CommandRunner func(ctx context.Context, dir, name string, args ...string) error

// FFmpeg runs media engine jobs against a workspace
type FFmpeg struct {
	binary string
	run    CommandRunner
	logger *zap.Logger
}

// NewFFmpeg creates an engine invoking binary. An empty binary means "ffmpeg" on PATH.
func NewFFmpeg(binary string, logger *zap.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		binary: binary,
		run:    execRunner,
		logger: logger,
	}
}

// WithCommandRunner replaces the process runner (for testing)
func (f *FFmpeg) WithCommandRunner(r CommandRunner) {
	f.run = r
}

// Run executes one job. Artifact names in args resolve against the workspace.
func (f *FFmpeg) Run(ctx context.Context, ws *Workspace, operation string, args []string) error {
	full := make([]string, 0, len(args)+4)
	full = append(full, "-y", "-hide_banner", "-loglevel", "error")
	full = append(full, args...)

	started := time.Now()
	if err := f.run(ctx, ws.Dir(), f.binary, full...); err != nil {
		if f.logger != nil {
			f.logger.Error("❌ Media engine job failed",
				zap.String("operation", operation),
				zap.String("workspace", ws.ID),
				zap.Error(err),
			)
		}
		return apperrors.ErrMediaEngine(operation, err)
	}

	if f.logger != nil {
		f.logger.Debug("🎬 Media engine job finished",
			zap.String("operation", operation),
			zap.String("workspace", ws.ID),
			zap.Duration("took", time.Since(started)),
		)
	}
	return nil
}

func execRunner(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
