package blacklist

import (
	"context"
	"time"

	"github.com/Skotchmaster/mini_online_store/pkg/logging"
)

type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func RunPurger(ctx context.Context, p Purger, interval time.Duration) {
	l := logging.FromContext(ctx).With("component", "blacklist.purger")
	if interval <= 0 {
		l.Info("purger_disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Info("purger_stopped")
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				l.Warn("purge_failed", "error", err.Error())
				continue
			}
			if n > 0 {
				l.Info("purged", "rows", n)
			}
		}
	}
}
