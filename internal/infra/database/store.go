package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sunset_reminder_bot/internal/domain/reminder"
)

// SQLStore implements reminder.Store on database/sql. Queries are written
// with '?' placeholders and rebound to $n for PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

var _ reminder.Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB, postgres bool) *SQLStore {
	return &SQLStore{db: db, postgres: postgres, now: time.Now}
}

// Migrate creates the tables if they do not exist.
func (r *SQLStore) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return persistErr("error creating schema", err)
	}
	return nil
}

func (r *SQLStore) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Ping backs the /healthz endpoint.
func (r *SQLStore) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return persistErr("error pinging database", err)
	}
	return nil
}

func (r *SQLStore) q(query string) string {
	if !r.postgres {
		return query
	}
	return rebind(query)
}

// rebind rewrites '?' placeholders into PostgreSQL's $1..$n form.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func persistErr(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, reminder.ErrPersistence, err)
}
