package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/task-board/internal/auth"
	"github.com/spec-kit/task-board/internal/config"
	"github.com/spec-kit/task-board/internal/domain"
	"github.com/spec-kit/task-board/internal/repository"
	apperrors "github.com/spec-kit/task-board/pkg/util"
)

// AuthSession is the outcome of a successful register or login.
type AuthSession struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and the user directory.
type AuthService struct {
	users       repository.UserRepository
	tasks       repository.TaskRepository
	directory   repository.UserDirectory
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	minPassword int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	TaskRepo  repository.TaskRepository
	Directory repository.UserDirectory
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		tasks:       deps.TaskRepo,
		directory:   deps.Directory,
		tokenMgr:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
		minPassword: cfg.MinPasswordLength,
	}
}

// Register creates a new account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthSession, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	fields := map[string]any{}
	if name == "" {
		fields["name"] = "name is required"
	}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	} else if len(password) < s.minPassword {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", s.minPassword)
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// the unique email index can race the lookup above
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}

	return s.issueSession(user)
}

// Login authenticates a user. Unknown email and wrong password produce the
// same error so callers cannot probe which one failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthSession, error) {
	email = NormalizeEmail(email)

	fields := map[string]any{}
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	return s.issueSession(user)
}

func (s *AuthService) issueSession(user *domain.User) (*AuthSession, error) {
	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthSession{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ListUsers returns all users as response-safe summaries for assignee pickers.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summaries := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}

// DeleteUser removes an account. Deletion is refused while tasks remain
// assigned to the user, so task assignee references never dangle.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}

	assigned, err := s.tasks.CountByAssignee(ctx, userID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if assigned > 0 {
		return apperrors.NewConflict("user still has assigned tasks", map[string]any{"assigned_tasks": assigned})
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}

	if s.directory != nil {
		s.directory.Invalidate(ctx, userID)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// NormalizeEmail lowercases and trims an email used as login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
