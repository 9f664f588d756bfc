package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/corridor/internal/domain"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB записывает Exec; Query/QueryRow в этих тестах не используются.
type fakeDB struct {
	execs []execCall
	tag   pgconn.CommandTag
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return nil
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, EnsureSchema(context.Background(), db))

	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS pipeline_runs")
	assert.Contains(t, db.execs[0].sql, "CREATE TABLE IF NOT EXISTS pipeline_step_results")
}

func TestHistorySink_RecordsRunInOrder(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 1")}
	sink := NewHistorySink(NewRunRepo(db))
	ctx := context.Background()

	run := domain.NewRun()
	require.NoError(t, sink.RunStarted(ctx, run))

	now := time.Now()
	for _, name := range []string{"river", "barge"} {
		policy, _ := domain.PolicyOf(name)
		step := domain.Step{Name: name, Policy: policy}
		require.NoError(t, sink.StepFinished(ctx, run, step, domain.StepResult{
			StepName: name, StartedAt: now, FinishedAt: now,
		}))
	}

	run.MarkAborted("barge", 4, "fatal step barge exited with code 4")
	require.NoError(t, sink.RunFinished(ctx, run))

	require.Len(t, db.execs, 4)
	assert.True(t, strings.Contains(db.execs[0].sql, "INSERT INTO pipeline_runs"))

	// position и имя шага
	assert.Equal(t, 0, db.execs[1].args[1])
	assert.Equal(t, "river", db.execs[1].args[2])
	assert.Equal(t, 1, db.execs[2].args[1])
	assert.Equal(t, "barge", db.execs[2].args[2])

	// пустой launch_error уходит как NULL
	assert.Nil(t, db.execs[1].args[5])

	finish := db.execs[3]
	assert.Contains(t, finish.sql, "UPDATE pipeline_runs")
	assert.Equal(t, domain.RunStatusAborted, finish.args[1])
	assert.Equal(t, 4, finish.args[2])
	assert.Equal(t, "barge", *(finish.args[3].(*string)))
}

func TestRunRepo_FinishNotFound(t *testing.T) {
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewRunRepo(db)

	run := domain.NewRun()
	run.MarkCompleted(0)

	err := repo.Finish(context.Background(), run)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunRepo_ExecErrorWrapped(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := NewRunRepo(&fakeDB{err: dbErr})

	err := repo.Create(context.Background(), domain.NewRun())
	assert.ErrorIs(t, err, dbErr)
}
