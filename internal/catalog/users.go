// Package catalog manages the reference data around events: users,
// categories and compilations.
package catalog

import (
	"context"
	"log/slog"

	"explorewithme-backend/internal/apperr"
	"explorewithme-backend/internal/dto"
	"explorewithme-backend/internal/models"
	"explorewithme-backend/internal/store"
)

type Users struct {
	store *store.Store
	log   *slog.Logger
}

func NewUsers(st *store.Store, log *slog.Logger) *Users {
	return &Users{store: st, log: log}
}

func (u *Users) Create(ctx context.Context, name, email string) (dto.User, error) {
	taken, err := u.store.EmailTaken(ctx, email)
	if err != nil {
		return dto.User{}, err
	}
	if taken {
		return dto.User{}, apperr.Conflict("User with email %s already exists", email)
	}
	user := models.User{Name: name, Email: email}
	if err := u.store.CreateUser(ctx, &user); err != nil {
		return dto.User{}, err
	}
	u.log.Info("user created", "user_id", user.ID)
	return dto.NewUser(user), nil
}

// List returns the users with the given ids, or every user when ids is
// empty.
func (u *Users) List(ctx context.Context, ids []uint, page store.Page) ([]dto.User, error) {
	users, err := u.store.ListUsers(ctx, ids, page)
	if err != nil {
		return nil, err
	}
	out := make([]dto.User, 0, len(users))
	for _, user := range users {
		out = append(out, dto.NewUser(user))
	}
	return out, nil
}

// Delete removes the user and everything the user owns.
func (u *Users) Delete(ctx context.Context, id uint) error {
	if err := u.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	u.log.Info("user deleted", "user_id", id)
	return nil
}
