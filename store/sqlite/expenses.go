package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
)

// CreateExpense persists the expense and its shares in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, title, amount, category, creator_id, date, description, payment_method, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Title, expense.Amount.String(), expense.Category, expense.CreatorID,
		expense.Date.Format(models.DateFormat), expense.Description, expense.PaymentMethod,
		expense.CreatedAt.Unix(), expense.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	return tx.Commit()
}

func insertShares(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Shares {
		share := &expense.Shares[i]
		if share.ID == "" {
			share.ID = uuid.New().String()
		}
		share.ExpenseID = expense.ID

		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_shares (id, expense_id, user_id, amount_owed, status)
			 VALUES (?, ?, ?, ?, ?)`,
			share.ID, share.ExpenseID, share.UserID, share.AmountOwed.String(), share.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	var (
		expense            models.Expense
		amount, date       string
		createdAt, updated int64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, amount, category, creator_id, date, description, payment_method, created_at, updated_at
		 FROM expenses WHERE id = ?`, id,
	).Scan(&expense.ID, &expense.Title, &amount, &expense.Category, &expense.CreatorID,
		&date, &expense.Description, &expense.PaymentMethod, &createdAt, &updated)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if expense.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	if expense.Date, err = time.Parse(models.DateFormat, date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	expense.CreatedAt = time.Unix(createdAt, 0)
	expense.UpdatedAt = time.Unix(updated, 0)

	shares, err := s.sharesForExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares

	return &expense, nil
}

func (s *Store) sharesForExpense(ctx context.Context, expenseID string) ([]models.Share, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sh.id, sh.expense_id, sh.user_id, u.username, sh.amount_owed, sh.status
		 FROM expense_shares sh
		 INNER JOIN users u ON sh.user_id = u.id
		 WHERE sh.expense_id = ?`, expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var (
			share  models.Share
			amount string
		)
		if err := rows.Scan(&share.ID, &share.ExpenseID, &share.UserID, &share.Username, &amount, &share.Status); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		if share.AmountOwed, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount owed: %w", err)
		}
		shares = append(shares, share)
	}

	return shares, rows.Err()
}

// UpdateExpense overwrites the expense row and replaces its entire share set
// in one transaction.
func (s *Store) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, amount = ?, category = ?, date = ?, description = ?, payment_method = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Title, expense.Amount.String(), expense.Category, expense.Date.Format(models.DateFormat),
		expense.Description, expense.PaymentMethod, expense.UpdatedAt.Unix(), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expense.ID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = ?`, expense.ID); err != nil {
		return fmt.Errorf("failed to delete old shares: %w", err)
	}

	if err := insertShares(ctx, tx, expense); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteExpense removes the share set first, then the expense, atomically.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_shares WHERE expense_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete shares: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, id)
	}

	return tx.Commit()
}

func (s *Store) ListExpensesForUser(ctx context.Context, userID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id
		 FROM expense_shares sh
		 INNER JOIN expenses e ON e.id = sh.expense_id
		 WHERE sh.user_id = ?
		 ORDER BY e.created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
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
	var (
		share  models.Share
		amount string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT sh.id, sh.expense_id, sh.user_id, u.username, sh.amount_owed, sh.status
		 FROM expense_shares sh
		 INNER JOIN users u ON sh.user_id = u.id
		 WHERE sh.id = ?`, id,
	).Scan(&share.ID, &share.ExpenseID, &share.UserID, &share.Username, &amount, &share.Status)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: share %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}

	if share.AmountOwed, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse amount owed: %w", err)
	}

	return &share, nil
}

func (s *Store) UpdateShareStatus(ctx context.Context, shareID string, status models.ShareStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE expense_shares SET status = ? WHERE id = ?`, status, shareID)
	if err != nil {
		return fmt.Errorf("failed to update share status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update share status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: share %s", apperrors.ErrNotFound, shareID)
	}

	return nil
}
