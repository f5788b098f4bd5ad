package services

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweep_RemovesOnlyExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	old := filepath.Join(dir, "old.xlsx")
	recent := filepath.Join(dir, "recent.xlsx")
	boundary := filepath.Join(dir, "boundary.xlsx")
	touch(t, old, now.Add(-8*day))
	touch(t, recent, now.Add(-6*day))
	touch(t, boundary, now.Add(-7*day))

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	nestedOld := filepath.Join(sub, "nested.xlsx")
	touch(t, nestedOld, now.Add(-30*day))
	require.NoError(t, os.Chtimes(sub, now.Add(-30*day), now.Add(-30*day)))

	s := NewRetentionSweeper(dir)
	s.now = func() time.Time { return now }

	report := s.Sweep(context.Background(), 7)

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)
	assert.FileExists(t, boundary, "age equal to the threshold is kept")
	assert.FileExists(t, nestedOld, "sweep is not recursive")
	assert.DirExists(t, sub)
	assert.Equal(t, SweepReport{Scanned: 3, Deleted: 1}, report)
}

func TestSweep_MissingDirectory(t *testing.T) {
	s := NewRetentionSweeper(filepath.Join(t.TempDir(), "missing"))
	assert.NotPanics(t, func() {
		assert.Equal(t, SweepReport{}, s.Sweep(context.Background(), 7))
	})
}

func TestSweep_ZeroDaysRemovesEverythingOlderThanNow(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "a.xlsx"), now.Add(-time.Minute))

	s := NewRetentionSweeper(dir)
	s.now = func() time.Time { return now }

	assert.Equal(t, 1, s.Sweep(context.Background(), 0).Deleted)
}

func TestProcess_UsesConfiguredOrRequestedRetention(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "a.xlsx"), now.Add(-10*24*time.Hour))

	t.Setenv("OUTPUT_DIR", dir)
	t.Setenv("RETENTION_DAYS", "30")
	s, err := NewRetentionSweeperFromEnv()
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	report, err := s.Process(context.Background(), models.RetentionSweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)

	days := 7
	report, err = s.Process(context.Background(), models.RetentionSweepRequest{MaxAgeDays: &days})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deleted)

	negative := -1
	_, err = s.Process(context.Background(), models.RetentionSweepRequest{MaxAgeDays: &negative})
	assert.Error(t, err)
}

func TestNewRetentionSweeperFromEnv_Validation(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")
	_, err := NewRetentionSweeperFromEnv()
	assert.Error(t, err)

	t.Setenv("OUTPUT_DIR", t.TempDir())
	t.Setenv("RETENTION_DAYS", "-3")
	_, err = NewRetentionSweeperFromEnv()
	assert.Error(t, err)
}

func TestSweep_HugeThresholdDeletesNothing(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)
	recent := filepath.Join(dir, "recent.xlsx")
	ancient := filepath.Join(dir, "ancient.xlsx")
	touch(t, recent, now.Add(-time.Hour))
	touch(t, ancient, now.Add(-1000*24*time.Hour))

	s := NewRetentionSweeper(dir)
	s.now = func() time.Time { return now }

	for _, days := range []int{maxSweepDays, maxSweepDays + 1, 200000, math.MaxInt} {
		report := s.Sweep(context.Background(), days)
		assert.Zero(t, report.Deleted, "maxAgeDays=%d", days)
	}
	assert.FileExists(t, recent)
	assert.FileExists(t, ancient)

	_, err := s.Process(context.Background(), models.RetentionSweepRequest{MaxAgeDays: ptrInt(200000)})
	require.NoError(t, err)
	assert.FileExists(t, recent)
}

func TestSweep_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	elsewhere := t.TempDir()
	now := time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

	oldTarget := filepath.Join(elsewhere, "old.xlsx")
	newTarget := filepath.Join(elsewhere, "new.xlsx")
	touch(t, oldTarget, now.Add(-8*24*time.Hour))
	touch(t, newTarget, now.Add(-time.Hour))
	oldLink := filepath.Join(dir, "old-link.xlsx")
	newLink := filepath.Join(dir, "new-link.xlsx")
	dirLink := filepath.Join(dir, "dir-link")
	require.NoError(t, os.Symlink(oldTarget, oldLink))
	require.NoError(t, os.Symlink(newTarget, newLink))
	require.NoError(t, os.Symlink(elsewhere, dirLink))

	s := NewRetentionSweeper(dir)
	s.now = func() time.Time { return now }

	report := s.Sweep(context.Background(), 7)

	assert.Equal(t, SweepReport{Scanned: 2, Deleted: 1}, report)
	_, err := os.Lstat(oldLink)
	assert.True(t, os.IsNotExist(err), "expired link is removed")
	assert.FileExists(t, oldTarget, "link target is left alone")
	assert.FileExists(t, newLink)
	assert.DirExists(t, dirLink)
}

func ptrInt(v int) *int { return &v }
