package httptransport

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}), RequestID())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities", nil))

	id := rr.Header().Get(RequestIDHeader)
	require.Equal(t, id, seen)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	h := Chain(http.NotFoundHandler(), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/activities", nil)
	req.Header.Set(RequestIDHeader, "client-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "client-123", rr.Header().Get(RequestIDHeader))
}

func TestLoggingRecordsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /activities/{activity_name}/signup", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Chain(mux, RequestID(), Logging(logger))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/Nope/signup?email=a@b.c", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, buf.String(), `"status":404`)
	require.Contains(t, buf.String(), `"path":"/activities/Nope/signup"`)
	require.Contains(t, buf.String(), `"request_id":"`+rr.Header().Get(RequestIDHeader)+`"`)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	Chain(next, CORS("")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	Chain(next, CORS("http://localhost:5173")).ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/activities", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}
