package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

const advisoryUnlockTimeout = 5 * time.Second

// lockSession is the dedicated connection an advisory lock lives on.
type lockSession interface {
	unlock(ctx context.Context, key string) (bool, error)
	discard() error
	Close() error
}

type sqlLockSession struct {
	*sqlx.Conn
}

func (s sqlLockSession) unlock(ctx context.Context, key string) (bool, error) {
	var released bool
	if err := s.QueryRowxContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key).Scan(&released); err != nil {
		return false, err
	}
	return released, nil
}

// discard marks the connection bad so Close drops it instead of pooling a
// session that may still hold the lock.
func (s sqlLockSession) discard() error {
	return s.Raw(func(any) error { return driver.ErrBadConn })
}

// AdvisoryLocker serializes waiver passes across API replicas with a
// session-level advisory lock held on a dedicated connection.
type AdvisoryLocker struct {
	db     *sqlx.DB
	prefix string
	logger *logging.Logger
}

func NewAdvisoryLocker(db *sqlx.DB, logger *logging.Logger) *AdvisoryLocker {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdvisoryLocker{db: db, prefix: "waiver-pass:", logger: logger}
}

func (l *AdvisoryLocker) Lock(ctx context.Context, leagueID string) (func(), error) {
	conn, err := l.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}
	session := sqlLockSession{conn}

	key := l.prefix + leagueID
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		_ = session.discard()
		_ = conn.Close()
		return nil, fmt.Errorf("advisory lock league=%s: %w", leagueID, err)
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), advisoryUnlockTimeout)
		defer cancel()
		l.release(unlockCtx, session, leagueID, key)
	}, nil
}

// release unlocks and returns the session. A session whose unlock failed is
// closed for good, which ends the lock with it.
func (l *AdvisoryLocker) release(ctx context.Context, session lockSession, leagueID, key string) {
	released, err := session.unlock(ctx, key)
	if err != nil || !released {
		l.logger.WarnContext(ctx, "advisory unlock failed, dropping lock connection",
			"league_id", leagueID,
			"released", released,
			"error", err,
		)
		if discardErr := session.discard(); discardErr != nil {
			l.logger.WarnContext(ctx, "discard lock connection failed", "league_id", leagueID, "error", discardErr)
		}
	}
	_ = session.Close()
}
