package service

import (
	"context"
	"strings"
	"time"

	"daily-streak/internal/apperr"
	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

// UserService covers identity bootstrap and the profile/history views.
type UserService struct {
	store *repository.Store
	loc   *time.Location
}

func NewUserService(store *repository.Store, loc *time.Location) *UserService {
	return &UserService{store: store, loc: loc}
}

// Ensure creates the user on its first authenticated request. When the
// identity carries no name the local part of the email is used.
func (s *UserService) Ensure(ctx context.Context, id, email, name string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.New(apperr.Unauthorized, "ensure user", "missing user id")
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	return s.store.Users.Ensure(ctx, id, email, name)
}

func (s *UserService) Profile(ctx context.Context, id string) (*model.User, error) {
	return s.store.Users.FindByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, upd repository.ProfileUpdate) (*model.User, error) {
	if upd.Email != nil && !strings.Contains(*upd.Email, "@") {
		return nil, apperr.New(apperr.Invalid, "update profile", "email is invalid")
	}
	return s.store.Users.UpdateProfile(ctx, id, upd)
}

// History returns daily snapshots between from and to, inclusive.
func (s *UserService) History(ctx context.Context, id string, from, to time.Time) ([]model.DailySnapshot, error) {
	from, to = StartOfDay(from, s.loc), StartOfDay(to, s.loc)
	if to.Before(from) {
		return nil, apperr.New(apperr.Invalid, "history", "from must not be after to")
	}
	return s.store.Snapshots.ListByUser(ctx, id, from, to)
}
