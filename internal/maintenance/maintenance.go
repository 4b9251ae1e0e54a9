// Package maintenance runs the startup retention pass: archive stale
// leads and prune aged activity-log entries. There is no periodic
// loop; the host triggers this once per start.
package maintenance

import (
	"context"
	"log/slog"

	"github.com/openclaw/channelmgr/internal/store"
)

// Runner performs the retention pass against the store.
type Runner struct {
	store  store.Store
	days   int
	logger *slog.Logger
}

// New creates a Runner. days defaults to 30 when zero.
func New(s store.Store, days int, logger *slog.Logger) *Runner {
	if days <= 0 {
		days = 30
	}
	return &Runner{store: s, days: days, logger: logger}
}

// RunStartup archives leads and prunes the activity log once. The
// two steps are independent; a failure in one does not skip the other.
func (r *Runner) RunStartup(ctx context.Context) {
	archived, err := r.store.ArchiveOldLeads(ctx, r.days)
	if err != nil {
		r.logger.Error("archive old leads", "error", err)
	}

	pruned, err := r.store.PruneActivity(ctx, r.days)
	if err != nil {
		r.logger.Error("prune activity log", "error", err)
	}

	if archived > 0 || pruned > 0 {
		r.logger.Info("retention pass",
			"archived_leads", archived, "pruned_activity", pruned, "threshold_days", r.days)
	}
}
