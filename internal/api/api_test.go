package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/ledger"
	"github.com/shaiso/corridor/internal/repo"
)

// --- Fakes ---

type fakeStatus struct {
	results []domain.StepResult
	err     error
}

func (f *fakeStatus) Load() ([]domain.StepResult, error) {
	return f.results, f.err
}

type fakeHistory struct {
	runs    []domain.Run
	results map[uuid.UUID][]domain.StepResult
	limit   int
}

func (f *fakeHistory) ListRecent(_ context.Context, limit int) ([]domain.Run, error) {
	f.limit = limit
	return f.runs, nil
}

func (f *fakeHistory) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeHistory) ListStepResults(_ context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	return f.results[runID], nil
}

func testSteps() []domain.Step {
	return domain.BuildSteps(map[string][]string{
		"river": {"river_monitor"},
		"barge": {"barge_monitor"},
		"rail":  {"rail_monitor"},
		"risk":  {"generate_risk"},
	})
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Steps == nil {
		cfg.Steps = testSteps()
	}
	if cfg.Status == nil {
		cfg.Status = &fakeStatus{err: ledger.ErrNoRecord}
	}
	cfg.Logger = quietLogger()

	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// --- Tests ---

func TestHealth(t *testing.T) {
	srv := newServer(t, Config{Tracker: NewTracker()})

	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","running":false}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, Config{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "corridor_runs_total 1\n")
	})})

	resp, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "corridor_runs_total")
}

func TestGetStatus_FromRecordFile(t *testing.T) {
	store, err := ledger.NewStore(filepath.Join(t.TempDir(), "pipeline_status.env"))
	require.NoError(t, err)

	l := ledger.New()
	require.NoError(t, l.Record(domain.StepResult{StepName: "river", ExitCode: 0}))
	require.NoError(t, l.Record(domain.StepResult{StepName: "barge", ExitCode: 4}))
	require.NoError(t, store.Save(l))

	srv := newServer(t, Config{Status: store})

	resp, body := get(t, srv, "/api/v1/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data struct {
			ExitCode  int    `json:"exit_code"`
			FatalStep string `json:"fatal_step"`
			Complete  bool   `json:"complete"`
			Steps     []struct {
				Step   string `json:"step"`
				Result string `json:"result"`
			} `json:"steps"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))

	assert.Equal(t, 4, out.Data.ExitCode)
	assert.Equal(t, "barge", out.Data.FatalStep)
	assert.True(t, out.Data.Complete)
	require.Len(t, out.Data.Steps, 4)
	assert.Equal(t, "failed", out.Data.Steps[1].Result)
	assert.Equal(t, "not_run", out.Data.Steps[3].Result)
}

func TestGetStatus_NoRecord(t *testing.T) {
	srv := newServer(t, Config{})

	resp, body := get(t, srv, "/api/v1/status")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), string(ErrCodeNotFound))
}

func TestGetStatus_ReadError(t *testing.T) {
	srv := newServer(t, Config{Status: &fakeStatus{err: errors.New("disk on fire")}})

	resp, body := get(t, srv, "/api/v1/status")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "disk on fire")
}

func TestRuns_HistoryNotConfigured(t *testing.T) {
	srv := newServer(t, Config{})

	resp, _ := get(t, srv, "/api/v1/runs")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = get(t, srv, "/api/v1/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestListRuns(t *testing.T) {
	run := domain.NewRun()
	run.MarkCompleted(domain.ExitWatchdog)
	history := &fakeHistory{runs: []domain.Run{*run}}
	srv := newServer(t, Config{History: history})

	resp, body := get(t, srv, "/api/v1/runs?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, history.limit)

	var out struct {
		Data  []RunResponse `json:"data"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Data, 1)
	assert.Equal(t, run.ID.String(), out.Data[0].ID)
	assert.Equal(t, "COMPLETED", out.Data[0].Status)
	assert.Equal(t, domain.ExitWatchdog, out.Data[0].ExitCode)

	resp, _ = get(t, srv, "/api/v1/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, _ = get(t, srv, "/api/v1/runs?limit=100000")
	assert.Equal(t, maxRunsLimit, history.limit)
}

func TestGetRun(t *testing.T) {
	run := domain.NewRun()
	run.MarkAborted("river", 3, "fatal step failed")
	history := &fakeHistory{
		runs:    []domain.Run{*run},
		results: map[uuid.UUID][]domain.StepResult{run.ID: {{StepName: "river", ExitCode: 3}}},
	}
	srv := newServer(t, Config{History: history})

	resp, body := get(t, srv, "/api/v1/runs/"+run.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data RunDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "river", out.Data.FailedStep)
	require.Len(t, out.Data.Steps, 1)
	assert.Equal(t, 3, out.Data.Steps[0].ExitCode)

	resp, _ = get(t, srv, "/api/v1/runs/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, srv, "/api/v1/runs/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLastRun(t *testing.T) {
	tracker := NewTracker()
	srv := newServer(t, Config{Tracker: tracker})

	resp, _ := get(t, srv, "/api/v1/runs/last")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx := context.Background()
	run := domain.NewRun()
	run.MarkRunning()
	require.NoError(t, tracker.RunStarted(ctx, run))
	assert.True(t, tracker.Running())

	steps := testSteps()
	require.NoError(t, tracker.StepFinished(ctx, run, steps[0], domain.StepResult{StepName: "river"}))
	require.NoError(t, tracker.StepFinished(ctx, run, steps[1], domain.StepResult{StepName: "barge", ExitCode: 9}))
	run.MarkAborted("barge", 9, "fatal step failed")
	require.NoError(t, tracker.RunFinished(ctx, run))
	assert.False(t, tracker.Running())

	resp, body := get(t, srv, "/api/v1/runs/last")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data RunDetailResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, run.ID.String(), out.Data.ID)
	assert.Equal(t, "ABORTED", out.Data.Status)
	assert.Equal(t, 9, out.Data.ExitCode)
	require.Len(t, out.Data.Steps, 2)
	assert.Equal(t, "barge", out.Data.Steps[1].Step)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(quietLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), string(ErrCodeInternalError)))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mw("a"), mw("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}
