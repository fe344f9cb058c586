package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/igscheduler/internal/service"
)

// ClaimSweepJob settles posts stuck in publishing for longer than timeout,
// e.g. after a crash between the remote publish and the status write.
type ClaimSweepJob struct {
	ps      service.PostService
	timeout time.Duration
	now     func() time.Time
}

func NewClaimSweepJob(ps service.PostService, timeout time.Duration) *ClaimSweepJob {
	return &ClaimSweepJob{ps: ps, timeout: timeout, now: time.Now}
}

func (j *ClaimSweepJob) Sweep() {
	settled, err := j.ps.ReconcileStale(context.Background(), j.now().Add(-j.timeout))
	if err != nil {
		slog.Error("error sweeping stale claims", "error", err.Error())
		return
	}
	if settled > 0 {
		slog.Info("stale claims settled", "count", settled)
	}
}
