package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measures for the background job queues and the pool automation.
var (
	MeasureJobsEnqueued  = stats.Int64("mailfleet/queue/jobs_enqueued", "Jobs accepted onto a queue", stats.UnitDimensionless)
	MeasureJobsCompleted = stats.Int64("mailfleet/queue/jobs_completed", "Jobs that finished successfully", stats.UnitDimensionless)
	MeasureJobsFailed    = stats.Int64("mailfleet/queue/jobs_failed", "Jobs that failed permanently", stats.UnitDimensionless)
	MeasureJobsDeferred  = stats.Int64("mailfleet/queue/jobs_deferred", "Jobs deferred by rate limiting", stats.UnitDimensionless)
	MeasureJobDuration   = stats.Float64("mailfleet/queue/job_duration_ms", "Job handler duration", stats.UnitMilliseconds)

	MeasurePoolTransitions = stats.Int64("mailfleet/pools/transitions", "Committed pool transitions", stats.UnitDimensionless)
)

// Tags attached to the measures above.
var (
	KeyQueue, _      = tag.NewKey("queue")
	KeyTargetPool, _ = tag.NewKey("target_pool")
)

// FleetViews aggregates the fleet measures for export.
var FleetViews = []*view.View{
	{
		Name:        "mailfleet/queue/jobs_enqueued",
		Description: "Jobs accepted onto a queue",
		Measure:     MeasureJobsEnqueued,
		TagKeys:     []tag.Key{KeyQueue},
		Aggregation: view.Count(),
	},
	{
		Name:        "mailfleet/queue/jobs_completed",
		Description: "Jobs that finished successfully",
		Measure:     MeasureJobsCompleted,
		TagKeys:     []tag.Key{KeyQueue},
		Aggregation: view.Count(),
	},
	{
		Name:        "mailfleet/queue/jobs_failed",
		Description: "Jobs that failed permanently",
		Measure:     MeasureJobsFailed,
		TagKeys:     []tag.Key{KeyQueue},
		Aggregation: view.Count(),
	},
	{
		Name:        "mailfleet/queue/jobs_deferred",
		Description: "Jobs deferred by rate limiting",
		Measure:     MeasureJobsDeferred,
		TagKeys:     []tag.Key{KeyQueue},
		Aggregation: view.Count(),
	},
	{
		Name:        "mailfleet/queue/job_duration_ms",
		Description: "Job handler duration",
		Measure:     MeasureJobDuration,
		TagKeys:     []tag.Key{KeyQueue},
		Aggregation: view.Distribution(10, 50, 100, 500, 1000, 5000, 30000, 300000),
	},
	{
		Name:        "mailfleet/pools/transitions",
		Description: "Committed pool transitions",
		Measure:     MeasurePoolTransitions,
		TagKeys:     []tag.Key{KeyTargetPool},
		Aggregation: view.Count(),
	},
}

// RegisterFleetViews registers the fleet views with OpenCensus. Safe to call
// once per process.
func RegisterFleetViews() error {
	return view.Register(FleetViews...)
}

// RecordJobEnqueued records a job acceptance for the given queue.
func RecordJobEnqueued(ctx context.Context, queue string) {
	recordWithQueue(ctx, queue, MeasureJobsEnqueued.M(1))
}

// RecordJobCompleted records a successful job with its handler duration.
func RecordJobCompleted(ctx context.Context, queue string, duration time.Duration) {
	recordWithQueue(ctx, queue, MeasureJobsCompleted.M(1))
	recordWithQueue(ctx, queue, MeasureJobDuration.M(float64(duration.Milliseconds())))
}

// RecordJobFailed records a permanent job failure with its handler duration.
func RecordJobFailed(ctx context.Context, queue string, duration time.Duration) {
	recordWithQueue(ctx, queue, MeasureJobsFailed.M(1))
	recordWithQueue(ctx, queue, MeasureJobDuration.M(float64(duration.Milliseconds())))
}

// RecordJobDeferred records a rate-limit deferral for the given queue.
func RecordJobDeferred(ctx context.Context, queue string) {
	recordWithQueue(ctx, queue, MeasureJobsDeferred.M(1))
}

// RecordPoolTransition records a committed pool transition.
func RecordPoolTransition(ctx context.Context, targetPool string) {
	// Metrics are best effort.
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyTargetPool, targetPool)},
		MeasurePoolTransitions.M(1),
	)
}

func recordWithQueue(ctx context.Context, queue string, m stats.Measurement) {
	_ = stats.RecordWithTags(ctx,
		[]tag.Mutator{tag.Upsert(KeyQueue, queue)},
		m,
	)
}
