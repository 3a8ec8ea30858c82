package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// TransitionWorker processes transition event jobs from the River
// queue. For now it logs the event; this is the hook point for
// landlord/tenant notifications and calendar updates.
type TransitionWorker struct {
	river.WorkerDefaults[TransitionJobArgs]
}

// Work processes a single transition event job.
func (w *TransitionWorker) Work(ctx context.Context, job *river.Job[TransitionJobArgs]) error {
	slog.InfoContext(ctx, "processing transition event",
		"domain", job.Args.Domain,
		"entity_id", job.Args.EntityID,
		"from", job.Args.FromStatus,
		"to", job.Args.ToStatus,
		"user_id", job.Args.UserID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
