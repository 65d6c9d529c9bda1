package repo

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock — сессионная блокировка pg_advisory_lock.
//
// Блокировка принадлежит соединению, поэтому после успешного TryLock
// соединение удерживается до Unlock и не возвращается в пул.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64

	mu   sync.Mutex
	conn *pgxpool.Conn
}

// NewAdvisoryLock создаёт блокировку с ключом key.
func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

// TryLock пытается взять блокировку без ожидания.
func (l *AdvisoryLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return true, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Unlock снимает блокировку и возвращает соединение в пул.
func (l *AdvisoryLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, l.key); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	return nil
}
