package services

import (
	"context"

	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/store"
)

// UserService is the user directory: lookups and search over registered
// users, returning only the public projection.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.UserDTO, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return models.UserDTO{}, err
	}
	return user.DTO(), nil
}

// Search matches the query as a substring of username, first name or last
// name.
func (s *UserService) Search(ctx context.Context, query string) ([]models.UserDTO, error) {
	users, err := s.store.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	dtos := make([]models.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].DTO())
	}
	return dtos, nil
}
