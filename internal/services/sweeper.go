package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Lllllllleong/equipmentchecklist/internal/gcp"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
)

// DefaultRetentionDays is used when no retention threshold is configured.
const DefaultRetentionDays = 7

// maxSweepDays is the largest threshold expressible as a time.Duration.
const maxSweepDays = int(math.MaxInt64 / int64(24*time.Hour))

// SweepReport summarizes one retention sweep.
type SweepReport struct {
	Scanned int
	Deleted int
	Failed  int
}

// RetentionSweeper removes old artifacts from the local output directory.
type RetentionSweeper struct {
	dir         string
	defaultDays int
	now         func() time.Time
}

// NewRetentionSweeper creates a sweeper for dir.
func NewRetentionSweeper(dir string) *RetentionSweeper {
	return &RetentionSweeper{dir: dir, defaultDays: DefaultRetentionDays, now: time.Now}
}

// NewRetentionSweeperFromEnv creates a sweeper for OUTPUT_DIR keeping files for
// RETENTION_DAYS days.
func NewRetentionSweeperFromEnv() (*RetentionSweeper, error) {
	required, err := gcp.RequireEnv("OUTPUT_DIR")
	if err != nil {
		return nil, err
	}
	days, err := gcp.GetEnvInt("RETENTION_DAYS", DefaultRetentionDays)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, fmt.Errorf("RETENTION_DAYS must not be negative, got %d", days)
	}
	s := NewRetentionSweeper(required["OUTPUT_DIR"])
	s.defaultDays = days
	return s, nil
}

// Process runs a sweep for a scheduler event. The event may override the retention.
func (s *RetentionSweeper) Process(ctx context.Context, req models.RetentionSweepRequest) (SweepReport, error) {
	days := s.defaultDays
	if req.MaxAgeDays != nil {
		days = *req.MaxAgeDays
	}
	if days < 0 {
		return SweepReport{}, fmt.Errorf("maxAgeDays must not be negative, got %d", days)
	}
	return s.Sweep(ctx, days), nil
}

// Sweep deletes every regular file directly inside the output directory whose age
// exceeds maxAgeDays. Errors are logged and never abort the remaining files.
func (s *RetentionSweeper) Sweep(ctx context.Context, maxAgeDays int) SweepReport {
	logCtx := slog.With("dir", s.dir, "maxAgeDays", maxAgeDays)
	var report SweepReport

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logCtx.Error("Error cleaning up files", "error", err)
		return report
	}

	// Beyond maxSweepDays the threshold is not representable as a time.Duration and
	// no file can be old enough.
	if maxAgeDays > maxSweepDays {
		logCtx.Info("Retention threshold exceeds any file age; nothing to delete.")
		return report
	}
	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	now := s.now()
	for _, entry := range entries {
		if ctx.Err() != nil {
			logCtx.Warn("Sweep interrupted.", "error", ctx.Err())
			break
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		// Stat follows symlinks: a link to a regular file is swept by its target's age.
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				report.Failed++
				logCtx.Error("Failed to stat file", "path", path, "error", err)
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		report.Scanned++
		if now.Sub(info.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			report.Failed++
			logCtx.Error("Failed to delete file", "path", path, "error", err)
			continue
		}
		report.Deleted++
		logCtx.Info("File deleted.", "path", path)
	}

	logCtx.Info("Retention sweep complete.", "scanned", report.Scanned, "deleted", report.Deleted, "failed", report.Failed)
	return report
}
