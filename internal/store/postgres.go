package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"citycouncil/internal/domain"
)

const (
	pgUniqueViolation    = "23505"
	pgLockNotAvailable   = "55P03"
	pgQueryCanceledError = "57014"
)

// PostgresStore keeps each room as a JSONB document in the rooms table.
// Update locks the row with SELECT ... FOR UPDATE under a lock_timeout.
type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPostgresStore connects to the database at connString
func NewPostgresStore(ctx context.Context, connString string, lockTimeout time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &PostgresStore{pool: pool, lockTimeout: lockTimeout}, nil
}

// Create inserts a new room
func (s *PostgresStore) Create(ctx context.Context, room *domain.Room) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rooms (id, state, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		room.ID, room, string(room.Status), room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrRoomExists
		}
		return wrapErr(err)
	}
	return nil
}

// Get loads a room
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := s.pool.QueryRow(ctx, `SELECT state FROM rooms WHERE id = $1`, id).Scan(&room)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, wrapErr(err)
	}
	return room.Clone(), nil
}

// List returns the newest rooms first
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*domain.Room, error) {
	limit = ListLimit(limit)

	rows, err := s.pool.Query(ctx, `SELECT state FROM rooms ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	rooms := []*domain.Room{}
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room); err != nil {
			return nil, wrapErr(err)
		}
		rooms = append(rooms, room.Clone())
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return rooms, nil
}

// Update runs fn inside a transaction holding the room's row lock. Waiting
// for a pooled connection and waiting for the row lock are each bounded by
// the lock timeout.
func (s *PostgresStore) Update(ctx context.Context, id string, fn UpdateFunc) (*domain.Room, error) {
	beginCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	tx, err := s.pool.Begin(beginCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ErrRoomBusy
		}
		return nil, wrapErr(err)
	}
	defer tx.Rollback(ctx)

	// SET does not take bind parameters.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		return nil, wrapErr(err)
	}

	var room domain.Room
	err = tx.QueryRow(ctx, `SELECT state FROM rooms WHERE id = $1 FOR UPDATE`, id).Scan(&room)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, wrapErr(err)
	}

	work := room.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE rooms SET state = $2, status = $3, updated_at = $4, version = version + 1 WHERE id = $1`,
		id, work, string(work.Status), work.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr(err)
	}
	return work.Clone(), nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgQueryCanceledError:
			return domain.ErrRoomBusy
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrStorage, err)
}

var _ RoomStore = (*PostgresStore)(nil)
