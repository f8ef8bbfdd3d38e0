package ledger

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(repo, slog.Default()), slog.Default()).MountRoutes(r)
	return r
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateTransactionEndpoint(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := postJSON(router, "/transactions", `{
		"date": "2024-06-01",
		"memo": "office rent",
		"entries": [
			{"amount": 100, "debitAccountId": "rent-expense"},
			{"amount": 100, "creditAccountId": "cash"}
		]
	}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), "office rent")
}

func TestCreateTransactionEndpointRejectsUnbalanced(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rr := postJSON(router, "/transactions", `{
		"entries": [
			{"amount": 100, "debitAccountId": "rent-expense"},
			{"amount": 99, "creditAccountId": "cash"}
		]
	}`)

	require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
	require.Empty(t, repo.transactions)
}

func TestCreateTransactionEndpointValidatesShape(t *testing.T) {
	router := newTestRouter(newMockRepository())

	// Missing entries entirely.
	rr := postJSON(router, "/transactions", `{"memo": "no entries"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Malformed reference.
	rr = postJSON(router, "/transactions", `{
		"reference": "not-a-uuid",
		"entries": [
			{"amount": 10, "debitAccountId": "a"},
			{"amount": 10, "creditAccountId": "b"}
		]
	}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Invalid JSON body.
	rr = postJSON(router, "/transactions", `{`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTransactionEndpointDuplicateReference(t *testing.T) {
	router := newTestRouter(newMockRepository())
	body := `{
		"reference": "3e2f9a68-32b5-4f0e-8a4a-0dbb7e4f9a11",
		"entries": [
			{"amount": 50, "debitAccountId": "a"},
			{"amount": 50, "creditAccountId": "b"}
		]
	}`

	rr := postJSON(router, "/transactions", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = postJSON(router, "/transactions", body)
	require.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
}

func TestGetTransactionEndpointNotFound(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/transactions/404", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateTransactionEndpoint(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := postJSON(router, "/transactions", `{
		"entries": [
			{"amount": 100, "debitAccountId": "rent-expense"},
			{"amount": 100, "creditAccountId": "cash"}
		]
	}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	update := httptest.NewRequest(http.MethodPut, "/transactions/1", strings.NewReader(`{
		"memo": "corrected",
		"entries": [
			{"amount": 120, "debitAccountId": "rent-expense"},
			{"amount": 120, "creditAccountId": "cash"}
		]
	}`))
	update.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, update)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	require.Contains(t, recorder.Body.String(), "corrected")
}
