package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// runLockKey — ключ pg advisory lock для pipeline.
const runLockKey int64 = 0x636f7272 // "corr"

// RunLock — межпроцессная блокировка "один run за раз".
//
// Advisory lock привязан к сессии, поэтому держится
// отдельное соединение из пула до Release.
type RunLock struct {
	conn *pgxpool.Conn
}

// TryAcquireRunLock пытается взять блокировку без ожидания.
// Возвращает ErrLocked, если её держит другой процесс.
func TryAcquireRunLock(ctx context.Context, pool *pgxpool.Pool) (*RunLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", runLockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, ErrLocked
	}

	return &RunLock{conn: conn}, nil
}

// Release снимает блокировку и возвращает соединение в пул.
func (l *RunLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", runLockKey); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	return nil
}
