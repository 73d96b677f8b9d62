package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/utils"
)

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, title, amount, category, creator_id, date, description, payment_method, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, expense.ID, expense.Title, expense.Amount, expense.Category, expense.CreatorID,
			expense.Date, expense.Description, expense.PaymentMethod, expense.CreatedAt, expense.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}

		return insertShares(ctx, tx, expense)
	})
}

func insertShares(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Shares {
		share := &expense.Shares[i]
		if share.ID == "" {
			share.ID = uuid.New().String()
		}
		share.ExpenseID = expense.ID

		_, err := tx.ExecContext(ctx, `
			INSERT INTO expense_shares (id, expense_id, user_id, amount_owed, status)
			VALUES ($1, $2, $3, $4, $5)
		`, share.ID, share.ExpenseID, share.UserID, share.AmountOwed, share.Status)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var expense models.Expense
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, amount, category, creator_id, date, COALESCE(description, ''), payment_method, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`, id).Scan(
		&expense.ID,
		&expense.Title,
		&expense.Amount,
		&expense.Category,
		&expense.CreatorID,
		&expense.Date,
		&expense.Description,
		&expense.PaymentMethod,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	shares, err := s.sharesForExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares

	return &expense, nil
}

func (s *Store) sharesForExpense(ctx context.Context, expenseID string) ([]models.Share, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sh.id, sh.expense_id, sh.user_id, u.username, sh.amount_owed, sh.status
		FROM expense_shares sh
		INNER JOIN users u ON sh.user_id = u.id
		WHERE sh.expense_id = $1
	`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var share models.Share
		if err := rows.Scan(&share.ID, &share.ExpenseID, &share.UserID, &share.Username, &share.AmountOwed, &share.Status); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		shares = append(shares, share)
	}

	return shares, rows.Err()
}

// UpdateExpense overwrites the expense row and replaces its entire share set
// in one transaction. The previous shares, settled or not, are gone after
// this commits.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now()

	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE expenses
			SET title = $1, amount = $2, category = $3, date = $4, description = $5, payment_method = $6, updated_at = $7
			WHERE id = $8
		`, expense.Title, expense.Amount, expense.Category, expense.Date,
			expense.Description, expense.PaymentMethod, expense.UpdatedAt, expense.ID)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expense.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, expense.ID); err != nil {
			return fmt.Errorf("delete old shares: %w", err)
		}

		return insertShares(ctx, tx, expense)
	})
}

// DeleteExpense removes the share set first, then the expense, atomically.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = $1`, id); err != nil {
			return fmt.Errorf("delete shares: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete expense: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, id)
		}

		return nil
	})
}

func (s *Store) ListExpensesForUser(ctx context.Context, userID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id
		FROM expense_shares sh
		INNER JOIN expenses e ON e.id = sh.expense_id
		WHERE sh.user_id = $1
		ORDER BY e.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var expenses []models.Expense
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}

	return expenses, nil
}

func (s *Store) GetShare(ctx context.Context, id string) (*models.Share, error) {
	var share models.Share
	err := s.db.QueryRowContext(ctx, `
		SELECT sh.id, sh.expense_id, sh.user_id, u.username, sh.amount_owed, sh.status
		FROM expense_shares sh
		INNER JOIN users u ON sh.user_id = u.id
		WHERE sh.id = $1
	`, id).Scan(&share.ID, &share.ExpenseID, &share.UserID, &share.Username, &share.AmountOwed, &share.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: share %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}

	return &share, nil
}

func (s *Store) UpdateShareStatus(ctx context.Context, shareID string, status models.ShareStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE expense_shares SET status = $1 WHERE id = $2`, status, shareID)
	if err != nil {
		return fmt.Errorf("update share status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update share status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: share %s", apperrors.ErrNotFound, shareID)
	}

	return nil
}
