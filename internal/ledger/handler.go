package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finsight-hq/finsight/internal/platform/httpx"
)

// Handler exposes the transaction write path over HTTP.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// MountRoutes attaches ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transactions", h.create)
	r.Put("/transactions/{id}", h.update)
	r.Get("/transactions/{id}", h.get)
	r.Get("/transactions", h.list)
}

type entryRequest struct {
	Amount          float64 `json:"amount" validate:"gte=0"`
	DebitAccountID  string  `json:"debitAccountId" validate:"max=64"`
	CreditAccountID string  `json:"creditAccountId" validate:"max=64"`
	Memo            string  `json:"memo" validate:"max=500"`
}

type transactionRequest struct {
	Reference string         `json:"reference" validate:"omitempty,uuid"`
	Date      string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Memo      string         `json:"memo" validate:"max=500"`
	Entries   []entryRequest `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid transaction id", httpx.ErrValidation))
		return
	}
	var req transactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}
	updated, err := h.service.Update(r.Context(), UpdateInput{
		TransactionID: id,
		Date:          input.Date,
		Memo:          input.Memo,
		Entries:       input.Entries,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid transaction id", httpx.ErrValidation))
		return
	}
	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txn)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txns, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txns)
}

// respondDomainError keeps the ledger's rejection classes distinct: an
// unbalanced transaction is a validation failure, not a server fault.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnbalanced),
		errors.Is(err, ErrNoEntries),
		errors.Is(err, ErrEntryBothSides),
		errors.Is(err, ErrNegativeAmount):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error()))
	case errors.Is(err, ErrDuplicateReference):
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrDuplicate, err.Error()))
	default:
		if h.logger != nil {
			h.logger.Error("ledger request failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

func (r transactionRequest) toInput() (TransactionInput, error) {
	input := TransactionInput{Memo: r.Memo}
	if r.Reference != "" {
		ref, err := uuid.Parse(r.Reference)
		if err != nil {
			return TransactionInput{}, err
		}
		input.Reference = ref
	}
	if r.Date != "" {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return TransactionInput{}, err
		}
		input.Date = date
	}
	input.Entries = make([]EntryInput, 0, len(r.Entries))
	for _, e := range r.Entries {
		entry := EntryInput{Amount: e.Amount, Memo: e.Memo}
		if e.DebitAccountID != "" {
			id := e.DebitAccountID
			entry.DebitAccountID = &id
		}
		if e.CreditAccountID != "" {
			id := e.CreditAccountID
			entry.CreditAccountID = &id
		}
		input.Entries = append(input.Entries, entry)
	}
	return input, nil
}
