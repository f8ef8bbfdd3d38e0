package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/finsight-hq/finsight/internal/aging"
	"github.com/finsight-hq/finsight/internal/report"
)

// FileSource serves raw reports from JSON fixtures on disk, one directory
// per company. It implements the ReportSource boundary for local
// development and integration tests; production deployments plug in a
// client for the bookkeeping platform instead. Missing files degrade to
// empty data, mirroring how the platform behaves when a company has no
// activity.
type FileSource struct {
	dir string
}

// NewFileSource constructs a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) companyDir(companyID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("company_%d", companyID))
}

// FetchProfitAndLoss reads the P&L fixture. The from/to range is ignored:
// fixtures carry whatever window they were captured with.
func (s *FileSource) FetchProfitAndLoss(_ context.Context, companyID int64, _, _ time.Time) (report.RawReport, error) {
	var raw report.RawReport
	err := s.readJSON(filepath.Join(s.companyDir(companyID), "profit_and_loss.json"), &raw)
	return raw, err
}

// FetchBalanceSheet reads the balance sheet fixture for the requested month,
// falling back to the undated fixture.
func (s *FileSource) FetchBalanceSheet(_ context.Context, companyID int64, asOf time.Time) (report.RawReport, error) {
	var raw report.RawReport
	dated := filepath.Join(s.companyDir(companyID), "balance_sheet_"+asOf.Format("2006-01")+".json")
	if _, err := os.Stat(dated); err == nil {
		err := s.readJSON(dated, &raw)
		return raw, err
	}
	err := s.readJSON(filepath.Join(s.companyDir(companyID), "balance_sheet.json"), &raw)
	return raw, err
}

// FetchOpenInvoices reads the open receivables fixture.
func (s *FileSource) FetchOpenInvoices(_ context.Context, companyID int64) ([]aging.OpenItem, error) {
	var items []aging.OpenItem
	err := s.readJSON(filepath.Join(s.companyDir(companyID), "invoices.json"), &items)
	return items, err
}

// FetchOpenBills reads the open payables fixture.
func (s *FileSource) FetchOpenBills(_ context.Context, companyID int64) ([]aging.OpenItem, error) {
	var items []aging.OpenItem
	err := s.readJSON(filepath.Join(s.companyDir(companyID), "bills.json"), &items)
	return items, err
}

func (s *FileSource) readJSON(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dashboard: read fixture %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("dashboard: parse fixture %s: %w", path, err)
	}
	return nil
}
