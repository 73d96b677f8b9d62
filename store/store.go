// Package store defines the persistence boundary for users, expenses and
// shares. Implementations must map "row does not exist" to
// apperrors.ErrNotFound and uniqueness violations to apperrors.ErrConflict so
// the service layer never sees driver errors.
package store

import (
	"context"

	"github.com/splitly/splitly-api/models"
)

// Store is the transactional storage collaborator. The expense-plus-shares
// aggregate is the atomic unit: CreateExpense, UpdateExpense and
// DeleteExpense each run in a single transaction and either commit the whole
// aggregate or nothing.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	// Expenses. CreateExpense and UpdateExpense persist expense.Shares in the
	// same transaction as the expense row; UpdateExpense first drops the
	// existing share set. DeleteExpense removes shares before the expense.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	// ListExpensesForUser returns the parent expense of every share held by
	// the user, one entry per share. Callers collapse duplicates.
	ListExpensesForUser(ctx context.Context, userID string) ([]models.Expense, error)

	// Shares
	GetShare(ctx context.Context, id string) (*models.Share, error)
	UpdateShareStatus(ctx context.Context, shareID string, status models.ShareStatus) error

	Close() error
}
