package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/corridor/internal/domain"
	"github.com/shaiso/corridor/internal/ledger"
	"github.com/shaiso/corridor/internal/worker"
)

// --- helpers ---

// fakeExecutor возвращает заранее заданные коды и запоминает порядок вызовов.
type fakeExecutor struct {
	codes     map[string]int
	launchErr map[string]error
	onExecute func(step domain.Step)
	calls     []string
}

func (f *fakeExecutor) Execute(_ context.Context, step domain.Step) (*worker.ExecutionResult, error) {
	f.calls = append(f.calls, step.Name)
	if f.onExecute != nil {
		f.onExecute(step)
	}
	if err := f.launchErr[step.Name]; err != nil {
		return nil, err
	}
	return &worker.ExecutionResult{ExitCode: f.codes[step.Name]}, nil
}

// recordingObserver запоминает события и может возвращать ошибку.
type recordingObserver struct {
	started  int
	steps    []string
	finished []*domain.Run
	err      error
}

func (o *recordingObserver) RunStarted(_ context.Context, _ *domain.Run) error {
	o.started++
	return o.err
}

func (o *recordingObserver) StepFinished(_ context.Context, _ *domain.Run, step domain.Step, _ domain.StepResult) error {
	o.steps = append(o.steps, step.Name)
	return o.err
}

func (o *recordingObserver) RunFinished(_ context.Context, run *domain.Run) error {
	o.finished = append(o.finished, run)
	return o.err
}

type fixture struct {
	dir      string
	record   string
	executor *fakeExecutor
	observer *recordingObserver
	runner   *Runner
}

func newFixture(t *testing.T, codes map[string]int) *fixture {
	t.Helper()

	dir := t.TempDir()
	record := filepath.Join(dir, "data", "pipeline_status.env")
	store, err := ledger.NewStore(record)
	require.NoError(t, err)

	f := &fixture{
		dir:      dir,
		record:   record,
		executor: &fakeExecutor{codes: codes, launchErr: map[string]error{}},
		observer: &recordingObserver{},
	}
	f.runner = New(Config{
		Steps:      testSteps(),
		Executor:   f.executor,
		Store:      store,
		Workspaces: []string{filepath.Join(dir, "data"), filepath.Join(dir, "data", "history")},
		Observers:  []Observer{f.observer},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func testSteps() []domain.Step {
	return domain.BuildSteps(map[string][]string{
		"river": {"river_monitor"},
		"barge": {"barge_monitor"},
		"rail":  {"rail_monitor"},
		"risk":  {"generate_risk"},
	})
}

func (f *fixture) readRecord(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(f.record)
	require.NoError(t, err)
	return string(raw)
}

// --- Runner Tests ---

func TestRunner_AllStepsSucceed(t *testing.T) {
	f := newFixture(t, map[string]int{})

	out := f.runner.Run(context.Background())

	assert.Equal(t, 0, out.ExitCode())
	assert.Equal(t, domain.RunStatusCompleted, out.Run.Status)
	assert.Equal(t, []string{"river", "barge", "rail", "risk"}, f.executor.calls)
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=0\nRISK_RC=0\n", f.readRecord(t))
	assert.Len(t, out.Results, 4)

	// Workspace создан
	assert.DirExists(t, filepath.Join(f.dir, "data", "history"))
}

func TestRunner_ToleratedFailureGivesWatchdog(t *testing.T) {
	f := newFixture(t, map[string]int{"rail": 2})

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitWatchdog, out.ExitCode())
	assert.Equal(t, domain.RunStatusCompleted, out.Run.Status)
	assert.Empty(t, out.Run.FailedStep)
	assert.Equal(t, []string{"river", "barge", "rail", "risk"}, f.executor.calls)
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=2\nRISK_RC=0\n", f.readRecord(t))
}

func TestRunner_FatalFailurePropagatesCode(t *testing.T) {
	tests := []struct {
		step       string
		code       int
		wantCalls  []string
		wantRecord string
	}{
		{
			step:       "river",
			code:       3,
			wantCalls:  []string{"river"},
			wantRecord: "RIVER_RC=3\n",
		},
		{
			step:       "barge",
			code:       4,
			wantCalls:  []string{"river", "barge"},
			wantRecord: "RIVER_RC=0\nBARGE_RC=4\n",
		},
		{
			step:       "risk",
			code:       5,
			wantCalls:  []string{"river", "barge", "rail", "risk"},
			wantRecord: "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=0\nRISK_RC=5\n",
		},
		{
			step:       "river",
			code:       1,
			wantCalls:  []string{"river"},
			wantRecord: "RIVER_RC=1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			f := newFixture(t, map[string]int{tt.step: tt.code})

			out := f.runner.Run(context.Background())

			assert.Equal(t, tt.code, out.ExitCode())
			assert.Equal(t, domain.RunStatusAborted, out.Run.Status)
			assert.Equal(t, tt.step, out.Run.FailedStep)
			assert.Equal(t, tt.wantCalls, f.executor.calls)
			assert.Equal(t, tt.wantRecord, f.readRecord(t))
		})
	}
}

func TestRunner_FatalStepExitingWithLedgerFailureCode(t *testing.T) {
	f := newFixture(t, map[string]int{"barge": domain.ExitLedgerFailure})

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitLedgerFailure, out.ExitCode())
	assert.Equal(t, "barge", out.Run.FailedStep)
	assert.Equal(t, "fatal step barge exited with code 74", out.Run.Error)
	assert.NotContains(t, out.Run.Error, ErrLedgerWrite.Error())
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=74\n", f.readRecord(t))
}

func TestRunner_FatalTakesPrecedenceOverWatchdog(t *testing.T) {
	f := newFixture(t, map[string]int{"rail": 2, "risk": 5})

	out := f.runner.Run(context.Background())

	assert.Equal(t, 5, out.ExitCode())
	assert.Equal(t, "risk", out.Run.FailedStep)
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=2\nRISK_RC=5\n", f.readRecord(t))
}

func TestRunner_RerunClearsPreviousRecord(t *testing.T) {
	f := newFixture(t, map[string]int{"barge": 4})

	out := f.runner.Run(context.Background())
	require.Equal(t, 4, out.ExitCode())
	require.Equal(t, "RIVER_RC=0\nBARGE_RC=4\n", f.readRecord(t))

	// Второй run падает раньше: записи barge из первого run быть не должно
	f.executor.codes = map[string]int{"river": 3}
	f.executor.calls = nil

	out = f.runner.Run(context.Background())
	assert.Equal(t, 3, out.ExitCode())
	assert.Equal(t, "RIVER_RC=3\n", f.readRecord(t))
}

func TestRunner_StaleRecordIsClearedBeforeFirstStep(t *testing.T) {
	f := newFixture(t, map[string]int{})
	require.NoError(t, os.MkdirAll(filepath.Dir(f.record), 0o755))
	require.NoError(t, os.WriteFile(f.record, []byte("RIVER_RC=9\nBARGE_RC=9\n"), 0o644))

	f.executor.onExecute = func(step domain.Step) {
		if step.Name != "river" {
			return
		}
		_, err := os.Stat(f.record)
		assert.True(t, os.IsNotExist(err), "status record must be cleared before river runs")
	}

	out := f.runner.Run(context.Background())
	assert.Equal(t, 0, out.ExitCode())
}

func TestRunner_RecordPersistedBeforeNextStep(t *testing.T) {
	f := newFixture(t, map[string]int{"rail": 2})

	seen := map[string]string{}
	f.executor.onExecute = func(step domain.Step) {
		raw, _ := os.ReadFile(f.record)
		seen[step.Name] = string(raw)
	}

	f.runner.Run(context.Background())

	assert.Equal(t, "", seen["river"])
	assert.Equal(t, "RIVER_RC=0\n", seen["barge"])
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\n", seen["rail"])
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=2\n", seen["risk"])
}

func TestRunner_LaunchFailureTreatedAsNonzero(t *testing.T) {
	t.Run("fatal step", func(t *testing.T) {
		f := newFixture(t, map[string]int{})
		f.executor.launchErr["barge"] = worker.ErrLaunchFailed

		out := f.runner.Run(context.Background())

		assert.Equal(t, domain.ExitLaunchFailure, out.ExitCode())
		assert.Equal(t, "barge", out.Run.FailedStep)
		assert.Equal(t, "RIVER_RC=0\nBARGE_RC=127\n", f.readRecord(t))
		require.Len(t, out.Results, 2)
		assert.NotEmpty(t, out.Results[1].LaunchError)
	})

	t.Run("tolerated step", func(t *testing.T) {
		f := newFixture(t, map[string]int{})
		f.executor.launchErr["rail"] = errors.New("exec: rail_monitor: not found")

		out := f.runner.Run(context.Background())

		assert.Equal(t, domain.ExitWatchdog, out.ExitCode())
		assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=127\nRISK_RC=0\n", f.readRecord(t))
	})
}

func TestRunner_ExecutorPanicIsCaptured(t *testing.T) {
	f := newFixture(t, map[string]int{})
	f.executor.onExecute = func(step domain.Step) {
		if step.Name == "river" {
			panic("boom")
		}
	}

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitLaunchFailure, out.ExitCode())
	assert.Equal(t, "RIVER_RC=127\n", f.readRecord(t))
}

func TestRunner_SetupFailure(t *testing.T) {
	f := newFixture(t, map[string]int{})

	// Workspace внутри обычного файла создать нельзя
	blocker := filepath.Join(f.dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	f.runner.workspaces = []string{filepath.Join(blocker, "data")}

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitSetupFailure, out.ExitCode())
	assert.Equal(t, domain.RunStatusAborted, out.Run.Status)
	assert.Empty(t, out.Run.FailedStep)
	assert.Contains(t, out.Run.Error, ErrSetupFailed.Error())
	assert.Empty(t, f.executor.calls)
	assert.NoFileExists(t, f.record)
	assert.Len(t, f.observer.finished, 1)
}

func TestRunner_LedgerWriteFailureAborts(t *testing.T) {
	f := newFixture(t, map[string]int{})

	// Во время river на месте status record появляется непустой каталог,
	// rename поверх него невозможен.
	f.executor.onExecute = func(step domain.Step) {
		if step.Name == "river" {
			require.NoError(t, os.MkdirAll(filepath.Join(f.record, "occupied"), 0o755))
		}
	}

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitLedgerFailure, out.ExitCode())
	assert.Equal(t, domain.RunStatusAborted, out.Run.Status)
	assert.Equal(t, []string{"river"}, f.executor.calls)
}

func TestRunner_ObserversNotified(t *testing.T) {
	f := newFixture(t, map[string]int{"barge": 6})

	f.runner.Run(context.Background())

	assert.Equal(t, 1, f.observer.started)
	assert.Equal(t, []string{"river", "barge"}, f.observer.steps)
	require.Len(t, f.observer.finished, 1)
	assert.Equal(t, 6, f.observer.finished[0].ExitCode)
}

func TestRunner_ObserverErrorsDoNotChangeOutcome(t *testing.T) {
	f := newFixture(t, map[string]int{"rail": 2})
	f.observer.err = errors.New("broker down")

	out := f.runner.Run(context.Background())

	assert.Equal(t, domain.ExitWatchdog, out.ExitCode())
	assert.Equal(t, "RIVER_RC=0\nBARGE_RC=0\nRAIL_RC=2\nRISK_RC=0\n", f.readRecord(t))
}

func TestRunner_NotConfigured(t *testing.T) {
	r := New(Config{Steps: testSteps(), Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	out := r.Run(context.Background())

	assert.Equal(t, domain.ExitSetupFailure, out.ExitCode())
}
