package intake

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// RunJanitor expires pending submissions older than the configured TTL until
// ctx is done. It does nothing when no TTL is configured.
func (f *Flow) RunJanitor(ctx context.Context, interval time.Duration) {
	if f.opts.PendingTTL <= 0 {
		return
	}

	f.log.Info().Dur("interval", interval).Dur("ttl", f.opts.PendingTTL).Msg("starting pending submission janitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.log.Info().Msg("pending submission janitor stopped")
			return
		case <-ticker.C:
			f.Sweep()
		}
	}
}

// Sweep drops expired submissions and staged files that outlived the TTL.
// Staged files are checked directly because stores with native expiry
// (Redis) forget entries without telling us.
func (f *Flow) Sweep() {
	if f.opts.PendingTTL <= 0 {
		return
	}

	now := f.now()

	if sw, ok := f.store.(Sweeper); ok {
		for _, sub := range sw.Sweep(now) {
			f.log.Info().Stringer("kind", sub.Kind).Time("created-at", sub.CreatedAt).Msg("pending submission expired")
			f.discard(sub)
		}
	}

	matches, err := filepath.Glob(filepath.Join(f.opts.StagingDir, stagedFilePattern))
	if err != nil {
		f.log.Error().Err(err).Msg("failed to list staged files")
		return
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > f.opts.PendingTTL {
			f.log.Debug().Str("path", path).Msg("removing stale staged file")
			_ = os.Remove(path)
		}
	}
}
