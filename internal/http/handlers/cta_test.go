package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omadigital/engage-core/internal/cta"
)

func newCTARouter(t *testing.T) (http.Handler, pgxmock.PgxPoolIface, *cta.Catalog) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := cta.NewRepository(mock, nil)
	catalog := cta.NewCatalog(repo, time.Minute, nil)
	h := NewCTAHandler(repo, catalog, nil)

	r := chi.NewRouter()
	r.Post("/cta/{id}/events", h.HandleEvent)
	r.Post("/admin/cta/invalidate", h.HandleInvalidate)
	return r, mock, catalog
}

func TestCTAEventEndpoint(t *testing.T) {
	router, mock, _ := newCTARouter(t)

	mock.ExpectExec("INSERT INTO cta_events").
		WithArgs("quote-fr", "s1", "click", 0.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE cta_definitions SET clicks").
		WithArgs("quote-fr").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	req := httptest.NewRequest(http.MethodPost, "/cta/quote-fr/events",
		strings.NewReader(`{"session_id":"s1","kind":"click"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCTAEventEndpointSwallowsStoreFailure(t *testing.T) {
	router, mock, _ := newCTARouter(t)

	mock.ExpectExec("INSERT INTO cta_events").
		WithArgs("quote-fr", "s1", "view", 0.0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodPost, "/cta/quote-fr/events",
		strings.NewReader(`{"session_id":"s1","kind":"view"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCTAEventEndpointRejectsBadKind(t *testing.T) {
	router, _, _ := newCTARouter(t)

	req := httptest.NewRequest(http.MethodPost, "/cta/quote-fr/events",
		strings.NewReader(`{"session_id":"s1","kind":"like"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCTAInvalidateEndpoint(t *testing.T) {
	router, _, _ := newCTARouter(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/cta/invalidate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
