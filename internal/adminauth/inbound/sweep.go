package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/metric"
)

// Sweeper is a store that can drop its dead records.
type Sweeper interface {
	Sweep(ctx context.Context) int
	Len() int
}

// SweepJob describes one periodic eviction loop.
type SweepJob struct {
	Name     string
	Store    Sweeper
	Interval time.Duration
}

// RegisterSweepers starts one ticker loop per job on gm and publishes each
// store's size as an observable gauge. Loops stop when ctx is done.
func RegisterSweepers(ctx context.Context, gm *goroutine.Manager, ins instrument.Instrumentation, jobs ...SweepJob) {
	meter := ins.Meter("adminauth.sweep")

	for _, job := range jobs {
		_, err := meter.Int64ObservableGauge("adminauth."+job.Name+".records",
			metric.WithDescription("Records currently held by the "+job.Name+" store"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(job.Store.Len()))
				return nil
			}),
		)
		if err != nil {
			slog.Error("failed to create store size gauge", "store", job.Name, "error", err)
		}

		gm.Every(ctx, job.Interval, func(ctx context.Context) {
			RunSweep(ctx, job)
		})
	}
}

// RunSweep performs a single eviction pass.
func RunSweep(ctx context.Context, job SweepJob) int {
	removed := job.Store.Sweep(ctx)
	if removed > 0 {
		slog.DebugContext(ctx, "expired records swept", "store", job.Name, "removed", removed, "remaining", job.Store.Len())
	}
	return removed
}
