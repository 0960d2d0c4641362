package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/comment-moderation-api/internal/database"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// UnitOfWork runs fn atomically. Every write made through tx commits together
// or not at all. fn may run twice when the first attempt fails transiently.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx *Repositories) error) error
}

// Store gives non-transactional reads plus the unit of work
type Store interface {
	UnitOfWork
	Repos() *Repositories
}

type pgStore struct {
	db      *database.DB
	repos   *Repositories
	backoff time.Duration
	log     zerolog.Logger
}

// NewStore creates a PostgreSQL backed store
func NewStore(db *database.DB, backoff time.Duration, log zerolog.Logger) Store {
	return &pgStore{
		db:      db,
		repos:   NewRepositories(db),
		backoff: backoff,
		log:     log.With().Str("component", "store").Logger(),
	}
}

func (s *pgStore) Repos() *Repositories {
	return s.repos
}

// Do runs fn in one READ COMMITTED transaction, retrying once after a transient failure
func (s *pgStore) Do(ctx context.Context, fn func(tx *Repositories) error) error {
	err := s.attempt(ctx, fn)
	if err == nil || !IsTransient(err) {
		return err
	}

	s.log.Warn().Err(err).Dur("backoff", s.backoff).Msg("Retrying transaction after transient failure")

	timer := time.NewTimer(s.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	return s.attempt(ctx, fn)
}

func (s *pgStore) attempt(ctx context.Context, fn func(tx *Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsTransient reports whether err is a storage failure worth retrying:
// lost connections, serialization failures and deadlocks.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransient) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		switch {
		case strings.HasPrefix(code, "08"): // connection exception
			return true
		case code == "40001", code == "40P01": // serialization failure, deadlock
			return true
		case code == "57P01": // admin shutdown
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
