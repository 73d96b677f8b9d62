package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/splitly/splitly-api/apperrors"
	"github.com/splitly/splitly-api/models"
)

// allocateShares computes the share set for an expense request.
//
// With no explicit breakdown the creator gets a single PAID share over the
// full amount: they paid out of pocket and owe nobody. With a breakdown each
// entry becomes an UNPAID share for the referenced user. Entries are not
// required to sum to the expense total.
func (s *ExpenseService) allocateShares(ctx context.Context, creator *models.User, req *models.ExpenseRequest) ([]models.Share, error) {
	if len(req.Shares) == 0 {
		return []models.Share{{
			UserID:     creator.ID,
			Username:   creator.Username,
			AmountOwed: req.Amount,
			Status:     models.SharePaid,
		}}, nil
	}

	shares := make([]models.Share, 0, len(req.Shares))
	for _, entry := range req.Shares {
		if !entry.AmountOwed.IsPositive() {
			return nil, fmt.Errorf("%w: share amount must be positive", apperrors.ErrInvalidArgument)
		}

		user, err := s.store.GetUserByID(ctx, entry.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, entry.UserID)
			}
			return nil, err
		}

		shares = append(shares, models.Share{
			UserID:     user.ID,
			Username:   user.Username,
			AmountOwed: entry.AmountOwed,
			Status:     models.ShareUnpaid,
		})
	}

	return shares, nil
}
