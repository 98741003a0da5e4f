package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/havoice-eval/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStore struct {
	runs    map[string]*store.RunRecord
	samples map[string][]*store.SampleRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:    make(map[string]*store.RunRecord),
		samples: make(map[string][]*store.SampleRecord),
	}
}

func (f *fakeStore) SaveRun(ctx context.Context, run *store.RunRecord) error {
	f.runs[run.ID] = run
	return nil
}

func (f *fakeStore) GetRun(ctx context.Context, id string) (*store.RunRecord, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, fmt.Errorf("store: run %q not found", id)
	}
	return run, nil
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]*store.RunRecord, error) {
	var out []*store.RunRecord
	for _, run := range f.runs {
		out = append(out, run)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) GetSamples(ctx context.Context, runID string) ([]*store.SampleRecord, error) {
	return f.samples[runID], nil
}

func (f *fakeStore) Close() error { return nil }

func seededStore() *fakeStore {
	st := newFakeStore()
	st.runs["run-1"] = &store.RunRecord{
		ID:           "run-1",
		StartedAt:    time.Now(),
		Dataset:      "cases.ndjson",
		Provider:     "claude",
		ToolTier:     "mvp",
		TotalSamples: 1,
		Accuracy:     1,
	}
	st.samples["run-1"] = []*store.SampleRecord{
		{CaseID: "turn_on_kitchen", Overall: "C"},
	}
	return st
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("HAVOICE_API_KEY", "")
	t.Setenv("HAVOICE_DISABLE_AUTH", "true")
	srv, err := NewServer(seededStore())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doRequest(srv *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/api/runs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}

	var runs []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs: got %d want 1", len(runs))
	}
}

func TestListRuns_BadLimit(t *testing.T) {
	srv := newTestServer(t)
	for _, q := range []string{"?limit=zero", "?limit=-3", "?limit=0"} {
		rec := doRequest(srv, http.MethodGet, "/api/runs"+q, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status got %d want 400", q, rec.Code)
		}
	}
}

func TestGetRun(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/runs/run-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/runs/absent", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("absent run: status got %d want 404", rec.Code)
	}
}

func TestGetRunSamples(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/runs/run-1/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", rec.Code)
	}
	var samples []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &samples); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples: got %d want 1", len(samples))
	}

	rec = doRequest(srv, http.MethodGet, "/api/runs/absent/samples", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("absent run: status got %d want 404", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	t.Setenv("HAVOICE_API_KEY", "secret")
	t.Setenv("HAVOICE_DISABLE_AUTH", "")
	srv, err := NewServer(seededStore())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := doRequest(srv, http.MethodGet, "/api/runs", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status got %d want 401", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/runs", map[string]string{"X-API-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status got %d want 401", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/runs", map[string]string{"X-API-Key": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("right key: status got %d want 200", rec.Code)
	}
}

func TestNewServer_MissingAuthConfig(t *testing.T) {
	t.Setenv("HAVOICE_API_KEY", "")
	t.Setenv("HAVOICE_DISABLE_AUTH", "")
	if _, err := NewServer(seededStore()); err == nil {
		t.Fatalf("want error without auth configuration")
	}
}

func TestNewServer_NilStore(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Fatalf("want error for nil store")
	}
}
