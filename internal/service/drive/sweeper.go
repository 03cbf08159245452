package drive

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveSweeper deletes exported archives older than their TTL. It catches
// archives left behind by crashed or aborted downloads.
type ArchiveSweeper struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewArchiveSweeper creates a sweeper for dir
func NewArchiveSweeper(dir string, ttl, interval time.Duration, logger *slog.Logger) *ArchiveSweeper {
	return &ArchiveSweeper{
		dir:      dir,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done
func (s *ArchiveSweeper) Run(ctx context.Context) {
	s.sweepAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog()
		}
	}
}

func (s *ArchiveSweeper) sweepAndLog() {
	removed, err := s.Sweep()
	if err != nil {
		s.logger.Warn("archive sweep failed", "dir", s.dir, "error", err)
	}
	if removed > 0 {
		s.logger.Debug("expired archives removed", "count", removed)
	}
}

// Sweep removes expired .zip files and returns how many were removed.
// Files that disappear concurrently are not errors.
func (s *ArchiveSweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
