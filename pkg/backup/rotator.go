// Package backup snapshots the data files into timestamped directories on a
// fixed schedule and keeps only the newest few.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"simplib/pkg/logging"
)

// SnapshotLayout names snapshot directories; names sort in time order.
const SnapshotLayout = "20060102_150405"

// Sink receives every finished snapshot directory, e.g. for off-site copies.
type Sink interface {
	Upload(ctx context.Context, snapshot string) error
	// Forget is called when rotation deletes a snapshot.
	Forget(snapshot string)
}

type Rotator struct {
	files    []string
	dir      string
	keep     int
	interval time.Duration
	log      logging.Logger
	now      func() time.Time
	sink     Sink
}

type Option func(*Rotator)

func WithClock(now func() time.Time) Option {
	return func(r *Rotator) { r.now = now }
}

func WithSink(s Sink) Option {
	return func(r *Rotator) { r.sink = s }
}

func NewRotator(files []string, dir string, keep int, interval time.Duration, log logging.Logger, opts ...Option) *Rotator {
	r := &Rotator{
		files:    files,
		dir:      dir,
		keep:     max(keep, 1),
		interval: interval,
		log:      log.With("component", "backup"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run takes a snapshot right away and then once per interval until ctx is
// done. Failures are logged; the loop never stops on its own.
func (r *Rotator) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if snapshot, err := r.RunOnce(ctx); err != nil {
			r.log.Error(ctx, "backup failed", "snapshot", snapshot, "error", err)
		}

		select {
		case <-ctx.Done():
			r.log.Info(ctx, "backup rotator stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce copies the data files into a new snapshot directory, prunes old
// snapshots and hands the new one to the sink. Missing source files are
// skipped. It returns the snapshot path even when some step failed.
func (r *Rotator) RunOnce(ctx context.Context) (string, error) {
	snapshot := filepath.Join(r.dir, r.now().Format(SnapshotLayout))
	if err := os.MkdirAll(snapshot, 0o755); err != nil {
		return snapshot, fmt.Errorf("create snapshot dir: %w", err)
	}

	var errs []error
	copied := 0
	for _, src := range r.files {
		ok, err := copyFile(src, filepath.Join(snapshot, filepath.Base(src)))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			copied++
		}
	}

	if err := r.prune(); err != nil {
		errs = append(errs, err)
	}

	if r.sink != nil {
		if err := r.sink.Upload(ctx, snapshot); err != nil {
			r.log.Warn(ctx, "snapshot upload failed", "snapshot", snapshot, "error", err)
		}
	}

	r.log.Info(ctx, "snapshot taken", "snapshot", snapshot, "files", copied)
	return snapshot, errors.Join(errs...)
}

// Snapshots lists snapshot directories, oldest first.
func (r *Rotator) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(SnapshotLayout, e.Name()); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (r *Rotator) prune() error {
	names, err := r.Snapshots()
	if err != nil {
		return err
	}
	if len(names) <= r.keep {
		return nil
	}

	var errs []error
	for _, name := range names[:len(names)-r.keep] {
		path := filepath.Join(r.dir, name)
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", name, err))
			continue
		}
		if r.sink != nil {
			r.sink.Forget(path)
		}
	}
	return errors.Join(errs...)
}

// copyFile copies src to dst keeping the modification time. A missing src
// is not an error; ok reports whether anything was copied.
func copyFile(src, dst string) (ok bool, err error) {
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return false, fmt.Errorf("chtimes %s: %w", dst, err)
	}
	return true, nil
}
