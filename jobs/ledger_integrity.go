package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/finsight-hq/finsight/internal/jobs"
)

var integrityTolerance = decimal.NewFromFloat(0.01)

// LedgerIntegrityJob sweeps persisted transactions and reports any whose
// entries no longer balance. The write path rejects unbalanced input, so a
// hit here means data was mutated outside the service.
type LedgerIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob wires dependencies for the integrity scan.
func NewLedgerIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes ledger integrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("ledger integrity: handler not configured")
	}

	tracker := j.metrics().Track(TaskLedgerIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()

	rows, err := j.Pool.Query(ctx, `
		SELECT t.id,
			COALESCE(SUM(CASE WHEN e.debit_account_id IS NOT NULL THEN e.amount ELSE 0 END), 0)::text,
			COALESCE(SUM(CASE WHEN e.credit_account_id IS NOT NULL THEN e.amount ELSE 0 END), 0)::text
		FROM ledger_transactions t
		LEFT JOIN ledger_entries e ON e.transaction_id = t.id
		GROUP BY t.id
		ORDER BY t.id`)
	if err != nil {
		resultErr = err
		logger.Error("query transaction sums", slog.Any("error", err))
		return resultErr
	}
	defer rows.Close()

	scanned := 0
	unbalanced := 0
	for rows.Next() {
		var id int64
		var debitRaw, creditRaw string
		if err := rows.Scan(&id, &debitRaw, &creditRaw); err != nil {
			resultErr = err
			return resultErr
		}
		scanned++
		debits, err := decimal.NewFromString(debitRaw)
		if err != nil {
			resultErr = err
			return resultErr
		}
		credits, err := decimal.NewFromString(creditRaw)
		if err != nil {
			resultErr = err
			return resultErr
		}
		if debits.Sub(credits).Abs().GreaterThanOrEqual(integrityTolerance) {
			unbalanced++
			logger.Warn("unbalanced transaction detected",
				slog.Int64("transaction_id", id),
				slog.String("debits", debits.StringFixed(2)),
				slog.String("credits", credits.StringFixed(2)))
		}
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	logger.Info("ledger integrity scan complete", slog.Int("scanned", scanned), slog.Int("unbalanced", unbalanced))
	return resultErr
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}

func (j *LedgerIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
