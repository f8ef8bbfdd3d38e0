package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/forecast"
	"github.com/finsight-hq/finsight/internal/report"
)

type stubSource struct {
	pl       report.RawReport
	bs       report.RawReport
	invoices []aging.OpenItem
	bills    []aging.OpenItem

	plCalls  int
	bsCalls  int
	fetchErr error
}

func (s *stubSource) FetchProfitAndLoss(ctx context.Context, companyID int64, from, to time.Time) (report.RawReport, error) {
	s.plCalls++
	return s.pl, s.fetchErr
}

func (s *stubSource) FetchBalanceSheet(ctx context.Context, companyID int64, asOf time.Time) (report.RawReport, error) {
	s.bsCalls++
	return s.bs, nil
}

func (s *stubSource) FetchOpenInvoices(ctx context.Context, companyID int64) ([]aging.OpenItem, error) {
	return s.invoices, nil
}

func (s *stubSource) FetchOpenBills(ctx context.Context, companyID int64) ([]aging.OpenItem, error) {
	return s.bills, nil
}

func testRawPL() report.RawReport {
	columns := []report.RawColumn{{Title: ""}}
	incomes := []string{"Total Income"}
	cogs := []string{"Total Cost Of Goods Sold"}
	expenses := []string{"Total Expenses"}
	net := []string{"Net Income"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		m := start.AddDate(0, i, 0)
		columns = append(columns, report.RawColumn{
			Title:     m.Format("Jan 2006"),
			StartDate: m.Format("2006-01-02"),
			EndDate:   m.AddDate(0, 1, -1).Format("2006-01-02"),
		})
		incomes = append(incomes, "10,000.00")
		cogs = append(cogs, "4,000.00")
		expenses = append(expenses, "7,000.00")
		net = append(net, "3,000.00")
	}
	return report.RawReport{
		Columns: columns,
		Rows: []report.RawRow{
			{Type: "summary", Cells: incomes},
			{Type: "summary", Cells: cogs},
			{Type: "summary", Cells: expenses},
			{Type: "summary", Cells: net},
		},
	}
}

func testRawBS() report.RawReport {
	return report.RawReport{
		Columns: []report.RawColumn{
			{Title: ""},
			{Title: "Jun 2024", StartDate: "2024-06-01", EndDate: "2024-06-30"},
		},
		Rows: []report.RawRow{
			{
				Type:  "section",
				Group: "Assets",
				Rows: []report.RawRow{
					{Cells: []string{"Checking", "20,000.00"}},
					{Cells: []string{"Accounts Receivable", "5,000.00"}},
				},
				Summary: []string{"Total Assets", "25,000.00"},
			},
			{
				Type:  "section",
				Group: "Liabilities",
				Rows: []report.RawRow{
					{Cells: []string{"Accounts Payable", "3,000.00"}},
				},
				Summary: []string{"Total Liabilities", "3,000.00"},
			},
		},
	}
}

func newTestService(t *testing.T, source ReportSource) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(source, NewCache(client, time.Minute), nil, nil, 12)
	svc.WithNow(func() time.Time {
		return time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
	})
	return svc
}

func TestGetSnapshotComposesPipeline(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{
		pl:       testRawPL(),
		bs:       testRawBS(),
		invoices: []aging.OpenItem{{Balance: 1200, DueDate: &due}},
	}
	svc := newTestService(t, source)

	snapshot, err := svc.GetSnapshot(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.CompanyID != 1 {
		t.Fatalf("company id = %d", snapshot.CompanyID)
	}
	if len(snapshot.Periods) != 6 {
		t.Fatalf("periods = %d, want 6", len(snapshot.Periods))
	}
	if snapshot.Metrics.Income != 10000 {
		t.Fatalf("income = %v, want 10000", snapshot.Metrics.Income)
	}
	if snapshot.Metrics.Cash != 20000 {
		t.Fatalf("cash = %v, want 20000", snapshot.Metrics.Cash)
	}
	if snapshot.ARAging.Total != 1200 {
		t.Fatalf("ar aging total = %v, want 1200", snapshot.ARAging.Total)
	}
	if len(snapshot.Forecast) != 12 {
		t.Fatalf("forecast = %d points, want 12", len(snapshot.Forecast))
	}
	if len(snapshot.Insights) == 0 {
		t.Fatal("expected at least one insight")
	}
}

func TestGetSnapshotCachesUntilBump(t *testing.T) {
	source := &stubSource{pl: testRawPL(), bs: testRawBS()}
	svc := newTestService(t, source)

	ctx := context.Background()
	if _, err := svc.GetSnapshot(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.plCalls != 1 {
		t.Fatalf("expected 1 fetch, got %d", source.plCalls)
	}

	// Second call hits the cache.
	if _, err := svc.GetSnapshot(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.plCalls != 1 {
		t.Fatalf("expected cached snapshot, source called %d times", source.plCalls)
	}

	// A version bump forces a recompute.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	if _, err := svc.GetSnapshot(ctx, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.plCalls != 2 {
		t.Fatalf("expected refetch after bump, got %d calls", source.plCalls)
	}
}

func TestGetSnapshotPropagatesFetchErrors(t *testing.T) {
	source := &stubSource{fetchErr: errors.New("upstream unavailable")}
	svc := newTestService(t, source)

	_, err := svc.GetSnapshot(context.Background(), 1)
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestGetSnapshotRequiresCompanyID(t *testing.T) {
	svc := newTestService(t, &stubSource{})
	if _, err := svc.GetSnapshot(context.Background(), 0); err == nil {
		t.Fatal("expected error for missing company id")
	}
}

func TestGetForecastAppliesScenario(t *testing.T) {
	source := &stubSource{pl: testRawPL(), bs: testRawBS()}
	svc := newTestService(t, source)

	ctx := context.Background()
	baseline, err := svc.GetForecast(ctx, 1, forecast.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boosted, err := svc.GetForecast(ctx, 1, forecast.Options{RevenueMultiplier: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(baseline) != 12 || len(boosted) != 12 {
		t.Fatalf("horizons = %d/%d, want 12", len(baseline), len(boosted))
	}
	if boosted[0].ProjectedIncome <= baseline[0].ProjectedIncome {
		t.Fatalf("scenario multiplier had no effect: %v vs %v",
			boosted[0].ProjectedIncome, baseline[0].ProjectedIncome)
	}
}
