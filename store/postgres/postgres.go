// Package postgres implements store.Store on PostgreSQL via database/sql and
// lib/pq.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/splitly/splitly-api/store"
)

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens a connection pool against the given DSN and runs migrations.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			amount NUMERIC(12,2) NOT NULL,
			category VARCHAR(32) NOT NULL,
			creator_id UUID NOT NULL REFERENCES users(id),
			date DATE NOT NULL,
			description TEXT,
			payment_method VARCHAR(32) NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		// Shares are deleted explicitly inside the same transaction as their
		// expense, so no ON DELETE CASCADE here.
		`CREATE TABLE IF NOT EXISTS expense_shares (
			id UUID PRIMARY KEY,
			expense_id UUID NOT NULL REFERENCES expenses(id),
			user_id UUID NOT NULL REFERENCES users(id),
			amount_owed NUMERIC(12,2) NOT NULL,
			status VARCHAR(16) NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_creator_id ON expenses(creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expense_shares_expense_id ON expense_shares(expense_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expense_shares_user_id ON expense_shares(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
