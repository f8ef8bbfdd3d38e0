package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalysisWarmup pre-computes analysis snapshots ahead of user traffic.
	TaskAnalysisWarmup = "analysis:warmup"
	// TaskLedgerIntegrity re-verifies that persisted transactions still balance.
	TaskLedgerIntegrity = "ledger:integrity"
)

// AnalysisWarmupPayload names the companies whose snapshots should be warmed.
type AnalysisWarmupPayload struct {
	CompanyIDs []int64 `json:"companyIds"`
}

// NewAnalysisWarmupTask constructs an Asynq task for snapshot warmup.
func NewAnalysisWarmupTask(payload AnalysisWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalysisWarmup, data), nil
}

// NewLedgerIntegrityTask constructs an Asynq task for the integrity scan.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}
