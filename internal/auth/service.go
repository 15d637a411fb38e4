package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ayush/user-auth-service/internal/logging"
	"github.com/ayush/user-auth-service/internal/models"
	"github.com/ayush/user-auth-service/internal/store"
)

const tracerName = "github.com/ayush/user-auth-service/internal/auth"

// UserStore defines the interface for user persistence.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
}

// Service owns registration, authentication, logout and listing.
type Service struct {
	users  UserStore
	hasher PasswordHasher
	logger logging.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(users UserStore, hasher PasswordHasher, logger logging.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		hasher: hasher,
		logger: logger.With("module", "auth_service"),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new active user. Username is checked before email.
func (s *Service) Register(ctx context.Context, username, password, email string) (_ *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register", trace.WithAttributes(attribute.String("username", username)))
	defer func() { endSpan(span, err) }()

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Save(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		IsActive:     true,
	})
	if err != nil {
		// the store's unique constraints catch registrations that raced
		// past the checks above
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return nil, ErrDuplicateUsername
		case errors.Is(err, store.ErrEmailTaken):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks existence, then password, then active status.
func (s *Service) Authenticate(ctx context.Context, username, password string) (_ *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Authenticate", trace.WithAttributes(attribute.String("username", username)))
	defer func() { endSpan(span, err) }()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

// Logout marks the user inactive. Logging out an inactive user succeeds and
// writes the same state again.
func (s *Service) Logout(ctx context.Context, username string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.Logout", trace.WithAttributes(attribute.String("username", username)))
	defer func() { endSpan(span, err) }()

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	user.IsActive = false
	if _, err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("save user: %w", err)
	}

	s.logger.Info(ctx, "user logged out", "user_id", user.ID, "username", user.Username)
	return nil
}

// ListUsers returns every user in store order; never nil.
func (s *Service) ListUsers(ctx context.Context) (_ []models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.ListUsers")
	defer func() { endSpan(span, err) }()

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
