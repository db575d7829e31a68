package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"Taskly/models"
	"Taskly/repository"
	"Taskly/result"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored hashes.
const PasswordCost = 10

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectUsername  = fmt.Errorf("%w: incorrect username", ErrInvalidCredentials)
	ErrIncorrectPassword  = fmt.Errorf("%w: incorrect password", ErrInvalidCredentials)
)

type AuthService struct {
	users repository.UserRepository
	cost  int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{
		users: users,
		cost:  PasswordCost,
	}
}

// Authenticate checks a username/password pair. The returned error tells the
// two rejection reasons apart for logging only; callers show one message.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn a comparison so unknown usernames cost the same as wrong passwords
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			slog.Warn("No user found with the provided username", "username", username)
			return nil, ErrIncorrectUsername
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.Warn("Incorrect password for user", "username", username)
			return nil, ErrIncorrectPassword
		}
		return nil, fmt.Errorf("failed to compare passwords: %w", err)
	}

	slog.Info("User authenticated successfully", "username", username)
	return user, nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, password string, isAdmin bool) result.Result[*models.User] {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return result.Failure[*models.User](result.ValidationError, "Username and password are required.", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return result.Failure[*models.User](result.ValidationError, "Password must be at most 72 bytes long.", err)
	}
	if err != nil {
		return result.Failure[*models.User](result.StoreError, "An error occurred while creating the user. Please try again.", fmt.Errorf("failed to hash password: %w", err))
	}

	user, err := s.users.InsertUser(ctx, username, string(hash), isAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return result.Failure[*models.User](result.DuplicateUser, "Username is already taken.", err)
		}
		return result.Failure[*models.User](result.StoreError, "An error occurred while creating the user. Please try again.", err)
	}

	slog.Info("User created successfully", "username", user.ID, "is_admin", user.IsAdmin)
	return result.Success("Registration successful. You can now log in.", user)
}

// Serialize returns the value stored in the session for a principal.
func (s *AuthService) Serialize(user *models.User) string {
	return user.ID
}

// Deserialize resolves a session value back to a principal. A user that no
// longer exists yields (nil, nil): the session is stale, not broken.
func (s *AuthService) Deserialize(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindUserByUsername(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Warn("User not found during deserialization", "user_id", id)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to deserialize user %s: %w", id, err)
	}
	return user, nil
}

// EnsureAdmin creates an admin account unless one with that name exists.
// An empty password skips seeding.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	_, err := s.users.FindUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, fmt.Errorf("failed to check for existing admin user: %w", err)
	}

	res := s.Register(ctx, username, password, true)
	if !res.OK() {
		if res.Kind() == result.DuplicateUser {
			return false, nil
		}
		if res.Err() != nil {
			return false, fmt.Errorf("failed to seed admin user: %w", res.Err())
		}
		return false, fmt.Errorf("failed to seed admin user: %s", res.Message)
	}
	return true, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskly-dummy-password"), s.cost)
	})
	return s.dummyHash
}
