package services

import (
	"fmt"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
)

// authorizeExpense is the read/mutate rule for an expense: the principal must
// be its creator or hold a share on it. A pure decision; callers must not
// leak expense contents on denial.
func authorizeExpense(principalID string, expense *models.Expense) error {
	if principalID == expense.CreatorID {
		return nil
	}
	for _, share := range expense.Shares {
		if share.UserID == principalID {
			return nil
		}
	}
	return fmt.Errorf("%w: you are not involved in this expense", apperrors.ErrAccessDenied)
}
