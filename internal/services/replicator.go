package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReplicationTimeout bounds a single copy attempt.
const DefaultReplicationTimeout = 60 * time.Second

// Target is a secondary location that receives a copy of every artifact.
type Target interface {
	Name() string
	Copy(ctx context.Context, localPath, filename string) error
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target string
	Err    error
}

// ReplicationResult is the outcome of a replication attempt. Replicated is true only
// when every target received the file.
type ReplicationResult struct {
	Replicated bool
	Err        error
	Targets    []TargetResult
}

// Replicator copies artifacts to its targets once, without retrying.
type Replicator struct {
	targets []Target
	timeout time.Duration
}

// NewReplicator creates a Replicator. A non-positive timeout uses DefaultReplicationTimeout.
func NewReplicator(timeout time.Duration, targets ...Target) *Replicator {
	if timeout <= 0 {
		timeout = DefaultReplicationTimeout
	}
	return &Replicator{targets: targets, timeout: timeout}
}

// Replicate copies localPath to every target under filename. It never fails: every
// error, timeout or panic is folded into the returned result.
func (r *Replicator) Replicate(ctx context.Context, localPath, filename string) ReplicationResult {
	logCtx := slog.With("filename", filename)
	if len(r.targets) == 0 {
		err := fmt.Errorf("%w: no targets configured", ErrReplication)
		logCtx.Error("Replication skipped", "error", err)
		return ReplicationResult{Err: err}
	}

	results := make([]TargetResult, len(r.targets))
	var eg errgroup.Group
	for i, t := range r.targets {
		eg.Go(func() error {
			results[i] = TargetResult{Target: t.Name(), Err: r.attempt(ctx, t, localPath, filename)}
			return nil
		})
	}
	_ = eg.Wait()

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			logCtx.Error("Error copying file to shared location", "target", res.Target, "error", res.Err)
			errs = append(errs, fmt.Errorf("%s: %w", res.Target, res.Err))
			continue
		}
		logCtx.Info("File copied to shared location.", "target", res.Target)
	}
	if len(errs) > 0 {
		return ReplicationResult{
			Err:     fmt.Errorf("%w: %w", ErrReplication, errors.Join(errs...)),
			Targets: results,
		}
	}
	return ReplicationResult{Replicated: true, Targets: results}
}

// attempt runs one copy under the replication timeout. A copy blocked in the kernel
// cannot be interrupted; on timeout it is abandoned and reported as failed.
func (r *Replicator) attempt(ctx context.Context, t Target, localPath, filename string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("panic during copy: %v", p)
			}
		}()
		done <- t.Copy(ctx, localPath, filename)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("copy abandoned: %w", ctx.Err())
	}
}

// DirectoryTarget copies artifacts into a directory, typically a mounted network share.
type DirectoryTarget struct {
	Dir string
}

// Name implements Target.
func (d DirectoryTarget) Name() string {
	return d.Dir
}

// Copy creates the directory if needed and writes filename into it, replacing any
// existing file of the same name. The copy keeps the source permission bits.
func (d DirectoryTarget) Copy(ctx context.Context, localPath, filename string) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create shared directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("could not open local file %s: %w", localPath, err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("could not stat local file %s: %w", localPath, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	destPath := filepath.Join(d.Dir, filename)
	dst, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy to %s: %w", destPath, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	return nil
}
