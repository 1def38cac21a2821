package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/logging"
)

// ErrDatabaseUnavailable is returned when every connection attempt failed.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// Open opens a pool for driverName and pings it until it answers, trying at
// most attempts times and sleeping interval between tries. The pool is
// closed again if the database never becomes reachable.
func Open(ctx context.Context, driverName, dsn string, attempts int, interval time.Duration, log logging.Logger) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if attempts < 1 {
		attempts = 1
	}

	var pingErr error
	for i := range attempts {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			log.Info(ctx, "database connection successful", "attempt", i+1)
			return db, nil
		}

		log.Warn(ctx, "database not ready", "attempt", i+1, "of", attempts, "error", pingErr)
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, errors.Join(ErrDatabaseUnavailable, ctx.Err())
		case <-time.After(interval):
		}
	}

	_ = db.Close()
	return nil, errors.Join(ErrDatabaseUnavailable, pingErr)
}

// Pinger returns a readiness probe for db.
func Pinger(db *sql.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
