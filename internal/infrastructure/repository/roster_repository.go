package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const rosterOperationTimeout = 5 * time.Second

// RosterRepository persists the volunteer schedule in Postgres. The table
// holds at most one day's roster; ingestion purges and replaces it.
type RosterRepository struct {
	db *sql.DB
}

func NewRosterRepository(dsn string) (*RosterRepository, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo := &RosterRepository{db: db}
	if err := repo.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *RosterRepository) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), rosterOperationTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schedule (
			date     DATE NOT NULL,
			username TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schedule table: %w", err)
	}
	return nil
}

// Replace purges the schedule table and inserts the given usernames for
// date. Returns the number of rows inserted.
func (r *RosterRepository) Replace(ctx context.Context, date string, usernames []string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, rosterOperationTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule"); err != nil {
		return 0, fmt.Errorf("failed to purge schedule: %w", err)
	}

	added := 0
	for _, username := range usernames {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO schedule (date, username) VALUES ($1, $2)", date, username)
		if err != nil {
			return 0, fmt.Errorf("failed to insert %q: %w", username, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit schedule: %w", err)
	}
	return added, nil
}

// Usernames returns every username currently scheduled.
func (r *RosterRepository) Usernames(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, rosterOperationTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, "SELECT username FROM schedule ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		usernames = append(usernames, u)
	}
	return usernames, rows.Err()
}

// Count returns the number of scheduled usernames.
func (r *RosterRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, rosterOperationTimeout)
	defer cancel()

	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedule").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count schedule: %w", err)
	}
	return n, nil
}

func (r *RosterRepository) Close() error {
	return r.db.Close()
}
