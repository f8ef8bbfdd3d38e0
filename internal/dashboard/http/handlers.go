// Package dashboardhttp exposes the analysis pipeline over HTTP.
package dashboardhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/finsight-hq/finsight/internal/dashboard"
	"github.com/finsight-hq/finsight/internal/forecast"
	"github.com/finsight-hq/finsight/internal/platform/httpx"
)

const requestTimeout = 15 * time.Second

// DashboardService is the data contract used by the handler.
type DashboardService interface {
	GetSnapshot(ctx context.Context, companyID int64) (dashboard.Snapshot, error)
	GetForecast(ctx context.Context, companyID int64, opts forecast.Options) ([]forecast.Point, error)
}

// Handler serves analysis, forecast and aging endpoints.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/analysis", h.analysis)
	r.Get("/forecast", h.forecast)
	r.Get("/aging/{side}", h.aging)
}

func (h *Handler) analysis(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshot, err := h.service.GetSnapshot(ctx, companyID)
	if err != nil {
		h.logger.Error("load analysis snapshot", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot)
}

func (h *Handler) forecast(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	opts := forecast.Options{
		Months:            intParam(r, "months"),
		RevenueMultiplier: floatParam(r, "revenue_multiplier"),
		ExpenseMultiplier: floatParam(r, "expense_multiplier"),
		RecurringRevenue:  floatParam(r, "recurring_revenue"),
		RecurringExpense:  floatParam(r, "recurring_expense"),
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.GetForecast(ctx, companyID, opts)
	if err != nil {
		h.logger.Error("build forecast", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, points)
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	side := chi.URLParam(r, "side")
	if side != "receivables" && side != "payables" {
		httpx.RespondError(w, fmt.Errorf("%w: side must be receivables or payables", httpx.ErrValidation))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	snapshot, err := h.service.GetSnapshot(ctx, companyID)
	if err != nil {
		h.logger.Error("load aging", slog.Int64("company_id", companyID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if side == "receivables" {
		httpx.JSON(w, http.StatusOK, snapshot.ARAging)
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot.APAging)
}

func companyParam(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("company_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: company_id is required", httpx.ErrValidation)
	}
	return id, nil
}

func intParam(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func floatParam(r *http.Request, name string) float64 {
	v, _ := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v
}
