package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/server/ratelimit"
)

type fakeStore struct {
	pingErr error

	apps      []db.ApplicationRow
	updates   map[uuid.UUID]db.ApplicationUpdate
	updateErr error

	companies  []db.Company
	created    []db.CompanyInput
	createErr  error
	active     map[uuid.UUID]bool
	deleted    []uuid.UUID
	missingIDs map[uuid.UUID]bool

	meta     map[string]string
	metaErr  error
	metaSets []map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updates:    map[uuid.UUID]db.ApplicationUpdate{},
		active:     map[uuid.UUID]bool{},
		missingIDs: map[uuid.UUID]bool{},
		meta:       map[string]string{},
	}
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) ListApplications(context.Context) ([]db.ApplicationRow, error) {
	return s.apps, nil
}

func (s *fakeStore) UpdateApplication(_ context.Context, id uuid.UUID, u db.ApplicationUpdate) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.missingIDs[id] {
		return db.ErrNotFound
	}
	s.updates[id] = u
	return nil
}

func (s *fakeStore) ListCompanies(context.Context) ([]db.Company, error) {
	return s.companies, nil
}

func (s *fakeStore) CreateCompany(_ context.Context, input db.CompanyInput) (*db.Company, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return &db.Company{ID: uuid.New(), Name: input.Name, Slug: input.Slug, Source: input.Source, IsActive: true}, nil
}

func (s *fakeStore) SetCompanyActive(_ context.Context, id uuid.UUID, active bool) error {
	if s.missingIDs[id] {
		return db.ErrNotFound
	}
	s.active[id] = active
	return nil
}

func (s *fakeStore) DeleteCompany(_ context.Context, id uuid.UUID) error {
	if s.missingIDs[id] {
		return db.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetMetaValues(_ context.Context, keys ...string) (map[string]string, error) {
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := s.meta[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *fakeStore) SetMetaValues(_ context.Context, values map[string]string) error {
	s.metaSets = append(s.metaSets, values)
	for k, v := range values {
		s.meta[k] = v
	}
	return nil
}

type fakeRefresher struct {
	calls     []*uuid.UUID
	result    ingest.Result
	err       error
	progress  []ingest.ProgressEvent
	streaming bool
}

func (f *fakeRefresher) Run(ctx context.Context, companyID *uuid.UUID) (ingest.Result, error) {
	return f.RunWithProgress(ctx, companyID, nil)
}

func (f *fakeRefresher) RunWithProgress(_ context.Context, companyID *uuid.UUID, onProgress ingest.ProgressCallback) (ingest.Result, error) {
	f.calls = append(f.calls, companyID)
	f.streaming = onProgress != nil
	if onProgress != nil {
		for _, e := range f.progress {
			onProgress(e)
		}
	}
	return f.result, f.err
}

type fakeSyncer struct {
	updated int64
	err     error
	calls   int
}

func (f *fakeSyncer) Sync(context.Context) (int64, error) {
	f.calls++
	return f.updated, f.err
}

type testServer struct {
	*Server
	store     *fakeStore
	refresher *fakeRefresher
	syncer    *fakeSyncer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		store:     newFakeStore(),
		refresher: &fakeRefresher{},
		syncer:    &fakeSyncer{},
	}
	ts.Server = New(Config{Port: 0, Logger: zaptest.NewLogger(t)}, ts.store, ts.refresher, ts.syncer)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])

	ts.store.pingErr = errors.New("connection refused")
	w = ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/health", "")

	w := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job_tracker_http_requests_total")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodOptions, "/companies", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/profile", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestWriteTimeout(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, DefaultWriteTimeout, ts.httpServer.WriteTimeout)

	srv := New(Config{WriteTimeout: 6 * time.Minute}, ts.store, ts.refresher, ts.syncer)
	assert.Equal(t, 6*time.Minute, srv.httpServer.WriteTimeout)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t)
	ts.Server = New(Config{
		Logger: zaptest.NewLogger(t),
		RateLimit: &ratelimit.Config{
			Enabled: true,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Method: http.MethodPost, Path: "/email/sync", Limit: 1, Window: time.Hour, Burst: 1},
			},
		},
	}, ts.store, ts.refresher, ts.syncer)
	t.Cleanup(ts.rateLimiter.Stop)

	w := ts.do(t, http.MethodPost, "/email/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(t, http.MethodPost, "/email/sync", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, 1, ts.syncer.calls)

	w = ts.do(t, http.MethodGet, "/jobs", "")
	assert.Equal(t, http.StatusOK, w.Code, "unlisted routes are not limited")
}
