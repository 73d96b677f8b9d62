package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/store"
	"github.com/splitly/splitly-api/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func createTestUser(t *testing.T, st store.Store, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}

	return user
}

func expenseRequest(amount string) *models.ExpenseRequest {
	return &models.ExpenseRequest{
		Title:         "Dinner",
		Amount:        decimal.RequireFromString(amount),
		Category:      models.CategoryFood,
		Date:          "2025-11-02",
		Description:   "Team dinner",
		PaymentMethod: models.PaymentCash,
	}
}

func TestCreate_SinglePayerAllocation(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")

	expense, err := svc.Create(ctx, creator.ID, expenseRequest("120.50"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(expense.Shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(expense.Shares))
	}

	share := expense.Shares[0]
	if share.UserID != creator.ID {
		t.Errorf("share owner: expected creator %s, got %s", creator.ID, share.UserID)
	}
	if !share.AmountOwed.Equal(decimal.RequireFromString("120.50")) {
		t.Errorf("share amount: expected 120.50, got %s", share.AmountOwed)
	}
	if share.Status != models.SharePaid {
		t.Errorf("share status: expected PAID, got %s", share.Status)
	}
}

func TestCreate_ExplicitAllocation(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	u1 := createTestUser(t, st, "bob")
	u2 := createTestUser(t, st, "carol")

	req := expenseRequest("100.00")
	req.Shares = []models.ShareRequest{
		{UserID: u1.ID, AmountOwed: decimal.RequireFromString("40.00")},
		{UserID: u2.ID, AmountOwed: decimal.RequireFromString("60.00")},
	}

	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(expense.Shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(expense.Shares))
	}

	byUser := make(map[string]models.Share)
	for _, share := range expense.Shares {
		if share.Status != models.ShareUnpaid {
			t.Errorf("share status: expected UNPAID, got %s", share.Status)
		}
		byUser[share.UserID] = share
	}

	if !byUser[u1.ID].AmountOwed.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("bob's share: expected 40.00, got %s", byUser[u1.ID].AmountOwed)
	}
	if !byUser[u2.ID].AmountOwed.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("carol's share: expected 60.00, got %s", byUser[u2.ID].AmountOwed)
	}
}

// Share amounts are not required to sum to the expense total; this documents
// the current permissive behavior.
func TestCreate_ExplicitAllocationDoesNotCheckSum(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")

	req := expenseRequest("100.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("90.00")},
	}

	if _, err := svc.Create(ctx, creator.ID, req); err != nil {
		t.Fatalf("Create rejected shares not summing to total: %v", err)
	}
}

func TestCreate_StrictSumValidation(t *testing.T) {
	t.Skip("allocation does not enforce that share amounts sum to the total; enable when it does")
}

func TestCreate_UnknownShareUser(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")

	req := expenseRequest("50.00")
	req.Shares = []models.ShareRequest{
		{UserID: "no-such-user", AmountOwed: decimal.RequireFromString("50.00")},
	}

	_, err := svc.Create(ctx, creator.ID, req)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	expenses, err := svc.ListForUser(ctx, creator.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("expected nothing persisted, found %d expenses", len(expenses))
	}
}

func TestCreate_NonPositiveAmount(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")

	for _, amount := range []string{"0", "-10.00"} {
		_, err := svc.Create(ctx, creator.ID, expenseRequest(amount))
		if !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Errorf("amount %s: expected ErrInvalidArgument, got %v", amount, err)
		}
	}

	expenses, err := svc.ListForUser(ctx, creator.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("expected nothing persisted, found %d expenses", len(expenses))
	}
}

func TestAuthorization_OutsiderDenied(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")
	outsider := createTestUser(t, st, "mallory")

	req := expenseRequest("100.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("100.00")},
	}

	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Get(ctx, outsider.ID, expense.ID); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Errorf("Get: expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Update(ctx, outsider.ID, expense.ID, expenseRequest("10.00")); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Errorf("Update: expected ErrAccessDenied, got %v", err)
	}
	if err := svc.Delete(ctx, outsider.ID, expense.ID); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Errorf("Delete: expected ErrAccessDenied, got %v", err)
	}

	// Creator and share holder both still see it.
	if _, err := svc.Get(ctx, creator.ID, expense.ID); err != nil {
		t.Errorf("creator Get failed: %v", err)
	}
	if _, err := svc.Get(ctx, debtor.ID, expense.ID); err != nil {
		t.Errorf("share holder Get failed: %v", err)
	}
}

func TestSettle_Authorization(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")
	outsider := createTestUser(t, st, "mallory")

	newShare := func(t *testing.T) string {
		req := expenseRequest("30.00")
		req.Shares = []models.ShareRequest{
			{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("30.00")},
		}
		expense, err := svc.Create(ctx, creator.ID, req)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return expense.Shares[0].ID
	}

	if _, err := svc.SettleShare(ctx, outsider.ID, newShare(t)); !errors.Is(err, apperrors.ErrAccessDenied) {
		t.Errorf("outsider settle: expected ErrAccessDenied, got %v", err)
	}

	share, err := svc.SettleShare(ctx, debtor.ID, newShare(t))
	if err != nil {
		t.Errorf("obligated user settle failed: %v", err)
	} else if share.Status != models.SharePaid {
		t.Errorf("share status: expected PAID, got %s", share.Status)
	}

	if _, err := svc.SettleShare(ctx, creator.ID, newShare(t)); err != nil {
		t.Errorf("creator settle failed: %v", err)
	}
}

func TestSettle_Idempotent(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")

	req := expenseRequest("30.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("30.00")},
	}
	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	shareID := expense.Shares[0].ID

	for i := 0; i < 2; i++ {
		share, err := svc.SettleShare(ctx, debtor.ID, shareID)
		if err != nil {
			t.Fatalf("settle attempt %d failed: %v", i+1, err)
		}
		if share.Status != models.SharePaid {
			t.Errorf("attempt %d: expected PAID, got %s", i+1, share.Status)
		}
	}
}

func TestSettle_UnknownShare(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)

	creator := createTestUser(t, st, "alice")

	_, err := svc.SettleShare(context.Background(), creator.ID, "no-such-share")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_ReplacesShareSet(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")

	req := expenseRequest("100.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("100.00")},
	}
	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Settle the old share so we can observe its history being discarded.
	oldShareID := expense.Shares[0].ID
	if _, err := svc.SettleShare(ctx, debtor.ID, oldShareID); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	update := expenseRequest("80.00")
	update.Title = "Dinner (corrected)"
	update.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("80.00")},
	}

	updated, err := svc.Update(ctx, creator.ID, expense.ID, update)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != "Dinner (corrected)" {
		t.Errorf("title not updated: %s", updated.Title)
	}
	if len(updated.Shares) != 1 {
		t.Fatalf("expected 1 share after update, got %d", len(updated.Shares))
	}

	newShare := updated.Shares[0]
	if newShare.ID == oldShareID {
		t.Error("expected a fresh share id after update")
	}
	if newShare.Status != models.ShareUnpaid {
		t.Errorf("replacement share: expected UNPAID, got %s", newShare.Status)
	}
	if !newShare.AmountOwed.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("replacement share amount: expected 80.00, got %s", newShare.AmountOwed)
	}

	// The pre-update share no longer resolves.
	if _, err := svc.SettleShare(ctx, debtor.ID, oldShareID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("old share still resolves: %v", err)
	}
}

func TestListForUser_Deduplicates(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")

	// Two share rows for the same user on one expense: listing must collapse
	// them to a single entry.
	req := expenseRequest("100.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("40.00")},
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("60.00")},
	}
	first, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	req2 := expenseRequest("20.00")
	req2.Title = "Taxi"
	req2.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("20.00")},
	}
	second, err := svc.Create(ctx, creator.ID, req2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	expenses, err := svc.ListForUser(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}

	if len(expenses) != 2 {
		t.Fatalf("expected 2 distinct expenses, got %d", len(expenses))
	}

	seen := map[string]bool{}
	for _, e := range expenses {
		if seen[e.ID] {
			t.Errorf("duplicate expense %s in listing", e.ID)
		}
		seen[e.ID] = true
	}
	if !seen[first.ID] || !seen[second.ID] {
		t.Errorf("listing missing expenses: %v", seen)
	}
}

func TestGet_UnknownExpense(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)

	creator := createTestUser(t, st, "alice")

	_, err := svc.Get(context.Background(), creator.ID, "no-such-expense")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnknownPrincipal(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)

	_, err := svc.Create(context.Background(), "ghost", expenseRequest("10.00"))
	if !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreate_InvalidEnums(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")

	cases := []struct {
		name   string
		mutate func(*models.ExpenseRequest)
	}{
		{"bad category", func(r *models.ExpenseRequest) { r.Category = "GROCERIES" }},
		{"bad payment method", func(r *models.ExpenseRequest) { r.PaymentMethod = "CHEQUE" }},
		{"bad date", func(r *models.ExpenseRequest) { r.Date = "02/11/2025" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := expenseRequest("10.00")
			tc.mutate(req)
			if _, err := svc.Create(ctx, creator.ID, req); !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestDelete_RemovesShares(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")
	debtor := createTestUser(t, st, "bob")

	req := expenseRequest("75.00")
	req.Shares = []models.ShareRequest{
		{UserID: debtor.ID, AmountOwed: decimal.RequireFromString("75.00")},
	}
	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	shareID := expense.Shares[0].ID

	if err := svc.Delete(ctx, creator.ID, expense.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := svc.Get(ctx, creator.ID, expense.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expense still resolves after delete: %v", err)
	}
	if _, err := st.GetShare(ctx, shareID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("share still resolves after delete: %v", err)
	}

	expenses, err := svc.ListForUser(ctx, debtor.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(expenses) != 0 {
		t.Errorf("expected empty listing after delete, got %d", len(expenses))
	}
}

// Guard against regressions in allocation when many users are involved.
func TestCreate_ManyShares(t *testing.T) {
	st := newTestStore(t)
	svc := NewExpenseService(st)
	ctx := context.Background()

	creator := createTestUser(t, st, "alice")

	req := expenseRequest("50.00")
	for i := 0; i < 5; i++ {
		u := createTestUser(t, st, fmt.Sprintf("user%d", i))
		req.Shares = append(req.Shares, models.ShareRequest{
			UserID:     u.ID,
			AmountOwed: decimal.RequireFromString("10.00"),
		})
	}

	expense, err := svc.Create(ctx, creator.ID, req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(expense.Shares) != 5 {
		t.Fatalf("expected 5 shares, got %d", len(expense.Shares))
	}
}
