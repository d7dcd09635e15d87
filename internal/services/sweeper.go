package services

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const tempDirPrefix = "ytrelay-"

// SweepWorkDir removes request directories left behind by crashed or killed
// requests. Only entries named like a request dir and older than olderThan go.
func SweepWorkDir(dir string, olderThan time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "read work dir %s", dir)
	}

	cutoff := now.Add(-olderThan)

	var removed int
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), tempDirPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return removed, errors.Wrapf(err, "remove %s", entry.Name())
		}
		removed++
	}

	return removed, nil
}

// SweepStale is run by cron: it sweeps the work dir and drops idle limiters.
func (r *Relay) SweepStale() {
	removed, err := SweepWorkDir(r.config.Download.WorkDir, r.config.Download.StaleAfter, time.Now())
	if err != nil {
		r.logger.Warn("sweep work dir: %s", err.Error())
	}
	if removed > 0 {
		r.logger.Info("sweep work dir: removed %d stale request dirs", removed)
	}

	r.spreader.Cleanup()
}
