package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/store"
)

// ExpenseService orchestrates the expense lifecycle: creation with share
// allocation, authorized reads and updates, settlement and deletion. All
// multi-row writes go through the store's transactional aggregate operations.
type ExpenseService struct {
	store store.Store
}

func NewExpenseService(st store.Store) *ExpenseService {
	return &ExpenseService{store: st}
}

// principal resolves the authenticated user behind a request. A token whose
// user no longer exists is treated as unauthenticated, not as a missing
// resource.
func (s *ExpenseService) principal(ctx context.Context, principalID string) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown principal", apperrors.ErrUnauthenticated)
		}
		return nil, err
	}
	return user, nil
}

func validateRequest(req *models.ExpenseRequest) (time.Time, error) {
	if !req.Amount.IsPositive() {
		return time.Time{}, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidArgument)
	}
	if !req.Category.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidArgument, req.Category)
	}
	if !req.PaymentMethod.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown payment method %q", apperrors.ErrInvalidArgument, req.PaymentMethod)
	}

	date, err := time.Parse(models.DateFormat, req.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be in %s format", apperrors.ErrInvalidArgument, models.DateFormat)
	}

	return date, nil
}

// Create builds an expense owned by the principal, allocates its shares and
// commits both in one transaction.
func (s *ExpenseService) Create(ctx context.Context, principalID string, req *models.ExpenseRequest) (*models.Expense, error) {
	creator, err := s.principal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	date, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Title:         req.Title,
		Amount:        req.Amount,
		Category:      req.Category,
		CreatorID:     creator.ID,
		Date:          date,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	}

	shares, err := s.allocateShares(ctx, creator, req)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// Get returns the expense if the principal is its creator or holds a share
// on it.
func (s *ExpenseService) Get(ctx context.Context, principalID, expenseID string) (*models.Expense, error) {
	if _, err := s.principal(ctx, principalID); err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := authorizeExpense(principalID, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// Update overwrites the expense's scalar fields and replaces its whole share
// set with a fresh allocation, atomically. Settlement state of the previous
// shares does not survive this.
func (s *ExpenseService) Update(ctx context.Context, principalID, expenseID string, req *models.ExpenseRequest) (*models.Expense, error) {
	creator, err := s.principal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	if err := authorizeExpense(principalID, expense); err != nil {
		return nil, err
	}

	date, err := validateRequest(req)
	if err != nil {
		return nil, err
	}

	expense.Title = req.Title
	expense.Amount = req.Amount
	expense.Category = req.Category
	expense.Date = date
	expense.Description = req.Description
	expense.PaymentMethod = req.PaymentMethod

	shares, err := s.allocateShares(ctx, creator, req)
	if err != nil {
		return nil, err
	}
	expense.Shares = shares

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// Delete removes the expense and all its shares in one transaction.
func (s *ExpenseService) Delete(ctx context.Context, principalID, expenseID string) error {
	if _, err := s.principal(ctx, principalID); err != nil {
		return err
	}

	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}

	if err := authorizeExpense(principalID, expense); err != nil {
		return err
	}

	return s.store.DeleteExpense(ctx, expenseID)
}

// ListForUser returns every expense the principal holds a share on,
// collapsed by expense id. A user normally holds at most one share per
// expense, but overlapping share rows must not produce duplicate entries.
func (s *ExpenseService) ListForUser(ctx context.Context, principalID string) ([]models.Expense, error) {
	if _, err := s.principal(ctx, principalID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesForUser(ctx, principalID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(expenses))
	distinct := make([]models.Expense, 0, len(expenses))
	for _, expense := range expenses {
		if seen[expense.ID] {
			continue
		}
		seen[expense.ID] = true
		distinct = append(distinct, expense)
	}

	return distinct, nil
}

// SettleShare marks a share as paid and returns it. Only the owning
// expense's creator or the obligated user may settle it. Settling an already
// paid share is a no-op success.
func (s *ExpenseService) SettleShare(ctx context.Context, principalID, shareID string) (*models.Share, error) {
	if _, err := s.principal(ctx, principalID); err != nil {
		return nil, err
	}

	share, err := s.store.GetShare(ctx, shareID)
	if err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, share.ExpenseID)
	if err != nil {
		return nil, err
	}

	if principalID != expense.CreatorID && principalID != share.UserID {
		return nil, fmt.Errorf("%w: only the expense creator or the obligated user may settle this share", apperrors.ErrAccessDenied)
	}

	if err := s.store.UpdateShareStatus(ctx, shareID, models.SharePaid); err != nil {
		return nil, err
	}
	share.Status = models.SharePaid

	return share, nil
}
