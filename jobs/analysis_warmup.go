package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finsight-hq/finsight/internal/dashboard"
	jobmetrics "github.com/finsight-hq/finsight/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AnalysisWarmupJob pre-populates snapshot caches so the first dashboard
// request of the day does not pay the full fetch-and-compute cost.
type AnalysisWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewAnalysisWarmupJob wires dependencies for the warmup handler.
func NewAnalysisWarmupJob(svc *dashboard.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnalysisWarmupJob {
	return &AnalysisWarmupJob{
		Dashboard: svc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analysis warmup tasks.
func (j *AnalysisWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("analysis warmup: handler not configured")
	}
	var payload AnalysisWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.CompanyIDs) == 0 {
		j.logger().Info("no companies requested for warmup")
		return nil
	}

	tracker := j.metrics().Track(TaskAnalysisWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	logger := j.logger()
	logger.Info("starting analysis warmup", slog.Int("companies", len(payload.CompanyIDs)))

	warmed := 0
	for _, companyID := range payload.CompanyIDs {
		if companyID <= 0 {
			continue
		}
		if err := j.warmCompany(ctx, companyID); err != nil {
			resultErr = err
			logger.Error("warm snapshot", slog.Int64("company_id", companyID), slog.Any("error", err))
			return resultErr
		}
		j.metrics().AddWarmups(companyID, 1)
		warmed++
	}

	logger.Info("completed analysis warmup", slog.Int("warmed", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *AnalysisWarmupJob) warmCompany(ctx context.Context, companyID int64) error {
	// Bound each company so one slow upstream fetch cannot stall the run.
	companyCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	_, err := j.Dashboard.GetSnapshot(companyCtx, companyID)
	return err
}

func (j *AnalysisWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalysisWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalysisWarmup))
}

func (j *AnalysisWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnalysisWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
