package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"spendtrack/internal/core"
)

// UserStore is the subset of the store the account service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

// UserService owns account creation and password changes. Passwords are
// stored as bcrypt hashes and never leave this package in clear text.
type UserService struct {
	store  UserStore
	logger *slog.Logger
}

func NewUserService(store UserStore, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger}
}

// CreateUser validates the credentials, pre-checks the username, and
// inserts the account. The pre-check is advisory; the unique index on
// username catches the race and the store translates it to the same
// duplicate error.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return core.User{}, err
	}
	if err := core.ValidatePassword(password); err != nil {
		return core.User{}, err
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return core.User{}, core.ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "user created",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

// UpdatePassword replaces a user's password after validating the new one
// against the policy.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, password string) error {
	if err := core.ValidatePassword(password); err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, id); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdateUserPassword(ctx, id, string(hash))
}

// Authenticate checks a username and password pair and returns the user on
// success. Lookup misses and hash mismatches return the same error so the
// response does not reveal which part was wrong.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, fmt.Errorf("invalid credentials: %w", core.ErrValidation)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, fmt.Errorf("invalid credentials: %w", core.ErrValidation)
	}
	return user, nil
}
