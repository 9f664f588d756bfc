package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Cron Tests ---

func TestParseSchedule_Next(t *testing.T) {
	sched, err := ParseSchedule("0 */6 * * *", "UTC")
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), sched.Next(from))
}

func TestParseSchedule_Timezone(t *testing.T) {
	sched, err := ParseSchedule("0 6 * * *", "America/Chicago")
	require.NoError(t, err)

	// 06:00 CST (UTC-6) = 12:00 UTC
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), sched.Next(from))
}

func TestParseSchedule_Descriptor(t *testing.T) {
	sched, err := ParseSchedule("@hourly", "")
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), sched.Next(from))
}

func TestParseSchedule_Invalid(t *testing.T) {
	_, err := ParseSchedule("not a cron", "UTC")
	assert.Error(t, err)

	_, err = ParseSchedule("0 * * * *", "Mars/Olympus")
	assert.Error(t, err)

	assert.Error(t, ValidateCronExpr("61 * * * *"))
	assert.NoError(t, ValidateCronExpr("*/15 * * * *"))
}

// --- Scheduler Tests ---

func TestNew_RequiresRunFunc(t *testing.T) {
	_, err := New(Config{CronExpr: "* * * * *"})
	assert.Error(t, err)
}

func TestScheduler_RunOnStartThenStops(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	sched, err := New(Config{
		// Следующий тик далеко: после run на старте цикл ждёт, пока не отменят ctx.
		CronExpr:   "0 0 1 1 *",
		RunOnStart: true,
		RunFunc: func(context.Context) int {
			runs.Add(1)
			cancel()
			return 1
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	err = sched.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), runs.Load())
}

func TestScheduler_RunsSequentiallyOnTicks(t *testing.T) {
	var runs, active, overlap atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, err := New(Config{
		CronExpr: "* * * * *",
		RunFunc: func(context.Context) int {
			if active.Add(1) > 1 {
				overlap.Add(1)
			}
			defer active.Add(-1)
			if runs.Add(1) == 2 {
				cancel()
			}
			return 0
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	// Часы, по которым следующий тик всегда "сейчас".
	sched.now = func() time.Time { return time.Now().Add(-time.Minute) }

	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	assert.GreaterOrEqual(t, runs.Load(), int32(2))
	assert.Equal(t, int32(0), overlap.Load())
}
