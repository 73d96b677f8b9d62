package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash, totp_secret, totp_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.FirstName, user.LastName,
		user.PasswordHash, user.TOTPSecret, user.TOTPEnabled, user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already taken", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var (
		user               models.User
		createdAt, updated int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, totp_secret, totp_enabled, created_at, updated_at
		 FROM users WHERE `+where, arg,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.PasswordHash, &user.TOTPSecret, &user.TOTPEnabled, &createdAt, &updated)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updated, 0)
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email = ?", email)
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, first_name, last_name, password_hash, totp_secret, totp_enabled, created_at, updated_at
		 FROM users
		 WHERE username LIKE ? OR first_name LIKE ? OR last_name LIKE ?
		 ORDER BY username`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var (
			user               models.User
			createdAt, updated int64
		)
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
			&user.PasswordHash, &user.TOTPSecret, &user.TOTPEnabled, &createdAt, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.CreatedAt = time.Unix(createdAt, 0)
		user.UpdatedAt = time.Unix(updated, 0)
		users = append(users, user)
	}

	return users, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, first_name = ?, last_name = ?, password_hash = ?, totp_secret = ?, totp_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.FirstName, user.LastName, user.PasswordHash,
		user.TOTPSecret, user.TOTPEnabled, user.UpdatedAt.Unix(), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already taken", apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, user.ID)
	}

	return nil
}
