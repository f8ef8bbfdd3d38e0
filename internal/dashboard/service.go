// Package dashboard orchestrates the analysis pipeline: it fetches raw
// reports from the bookkeeping platform collaborator, runs the pure
// calculators, and caches the composed snapshot.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/analysis"
	"github.com/finsight-hq/finsight/internal/forecast"
	"github.com/finsight-hq/finsight/internal/insights"
	"github.com/finsight-hq/finsight/internal/report"
)

// historyMonths is how far back the P&L fetch reaches. Thirteen months keeps
// a full year-over-year baseline in the series.
const historyMonths = 13

// ReportSource is the external bookkeeping platform boundary. The source
// owns authentication, retries and rate limiting; the dashboard only
// consumes its raw trees and flat lists.
type ReportSource interface {
	FetchProfitAndLoss(ctx context.Context, companyID int64, from, to time.Time) (report.RawReport, error)
	FetchBalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (report.RawReport, error)
	FetchOpenInvoices(ctx context.Context, companyID int64) ([]aging.OpenItem, error)
	FetchOpenBills(ctx context.Context, companyID int64) ([]aging.OpenItem, error)
}

// Snapshot is the full analysis output for one company at one point in time.
type Snapshot struct {
	CompanyID    int64                       `json:"companyId"`
	GeneratedAt  time.Time                   `json:"generatedAt"`
	Periods      []report.PeriodRecord       `json:"periods"`
	BalanceSheet report.BalanceSheetSnapshot `json:"balanceSheet"`
	Metrics      analysis.CoreMetrics        `json:"metrics"`
	Ratios       analysis.FinancialRatios    `json:"ratios"`
	Trend        analysis.Trend              `json:"trend"`
	ARAging      aging.Buckets               `json:"arAging"`
	APAging      aging.Buckets               `json:"apAging"`
	Forecast     []forecast.Point            `json:"forecast"`
	Insights     []insights.Insight          `json:"insights"`
}

// Service runs the analysis pipeline with cache-aside snapshot storage.
type Service struct {
	source         ReportSource
	parser         *report.Parser
	cache          *Cache
	logger         *slog.Logger
	benchmarks     map[string]float64
	forecastMonths int
	now            func() time.Time
}

// NewService wires the dashboard service. cache may be nil, in which case
// every call recomputes.
func NewService(source ReportSource, cache *Cache, logger *slog.Logger, benchmarks map[string]float64, forecastMonths int) *Service {
	if forecastMonths <= 0 {
		forecastMonths = forecast.DefaultHorizonMonths
	}
	return &Service{
		source:         source,
		parser:         report.NewParser(logger),
		cache:          cache,
		logger:         logger,
		benchmarks:     benchmarks,
		forecastMonths: forecastMonths,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GetSnapshot returns the cached analysis snapshot for a company,
// recomputing on a cache miss.
func (s *Service) GetSnapshot(ctx context.Context, companyID int64) (Snapshot, error) {
	if companyID <= 0 {
		return Snapshot{}, fmt.Errorf("dashboard: company id required")
	}
	key, err := s.cache.SnapshotKey(ctx, companyID, s.now().Format("2006-01"))
	if err != nil {
		return Snapshot{}, err
	}
	if cached, ok, err := s.cache.Lookup(ctx, key); err != nil {
		return Snapshot{}, err
	} else if ok {
		return cached, nil
	}
	snapshot, err := s.buildSnapshot(ctx, companyID)
	if err != nil {
		return Snapshot{}, err
	}
	// The snapshot is derived data; a failed store degrades to recompute
	// instead of failing the request.
	if err := s.cache.Store(ctx, key, snapshot); err != nil && s.logger != nil {
		s.logger.Warn("snapshot cache store failed",
			slog.Int64("company_id", companyID), slog.Any("error", err))
	}
	return snapshot, nil
}

// buildSnapshot fetches all raw inputs concurrently and runs the pipeline.
// The two balance sheet reads are independent, but both must land before the
// metrics stage runs; errgroup gives exactly that barrier.
func (s *Service) buildSnapshot(ctx context.Context, companyID int64) (Snapshot, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from := monthStart.AddDate(0, -(historyMonths - 1), 0)
	priorMonthEnd := monthStart.AddDate(0, 0, -1)

	var (
		plRaw      report.RawReport
		bsRaw      report.RawReport
		bsPriorRaw report.RawReport
		invoices   []aging.OpenItem
		bills      []aging.OpenItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		plRaw, err = s.source.FetchProfitAndLoss(gctx, companyID, from, now)
		return err
	})
	g.Go(func() (err error) {
		bsRaw, err = s.source.FetchBalanceSheet(gctx, companyID, now)
		return err
	})
	g.Go(func() (err error) {
		bsPriorRaw, err = s.source.FetchBalanceSheet(gctx, companyID, priorMonthEnd)
		return err
	})
	g.Go(func() (err error) {
		invoices, err = s.source.FetchOpenInvoices(gctx, companyID)
		return err
	})
	g.Go(func() (err error) {
		bills, err = s.source.FetchOpenBills(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, fmt.Errorf("dashboard: fetch reports: %w", err)
	}

	periods := s.parser.ProfitAndLoss(plRaw)
	balanceSheet := s.parser.BalanceSheet(bsRaw)
	priorSheet := s.parser.BalanceSheet(bsPriorRaw)

	metrics := analysis.ComputeMetrics(periods, balanceSheet, &priorSheet)
	ratios := analysis.ComputeRatios(metrics)
	trend := analysis.ComputeTrend(periods)
	arAging := aging.Calculate(invoices, now)
	apAging := aging.Calculate(bills, now)
	projection := forecast.Project(periods, arAging, apAging, metrics.Cash, forecast.Options{
		Months: s.forecastMonths,
	})

	findings := insights.Generate(insights.Input{
		Metrics:    metrics,
		Ratios:     ratios,
		Trend:      trend,
		ARAging:    arAging,
		APAging:    apAging,
		Forecast:   projection,
		Benchmarks: s.benchmarks,
	})

	if len(periods) == 0 && s.logger != nil {
		s.logger.Warn("analysis ran with no parsed periods", slog.Int64("company_id", companyID))
	}

	return Snapshot{
		CompanyID:    companyID,
		GeneratedAt:  now,
		Periods:      periods,
		BalanceSheet: balanceSheet,
		Metrics:      metrics,
		Ratios:       ratios,
		Trend:        trend,
		ARAging:      arAging,
		APAging:      apAging,
		Forecast:     projection,
		Insights:     findings,
	}, nil
}

// GetForecast recomputes the projection with scenario options on top of the
// cached snapshot's series.
func (s *Service) GetForecast(ctx context.Context, companyID int64, opts forecast.Options) ([]forecast.Point, error) {
	snapshot, err := s.GetSnapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if opts.Months <= 0 {
		opts.Months = s.forecastMonths
	}
	return forecast.Project(snapshot.Periods, snapshot.ARAging, snapshot.APAging, snapshot.Metrics.Cash, opts), nil
}
