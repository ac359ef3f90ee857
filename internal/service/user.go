package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/WhisperLily/task-management-api/internal/auth"
	"github.com/WhisperLily/task-management-api/internal/domain"
	"github.com/WhisperLily/task-management-api/internal/event"
	"github.com/WhisperLily/task-management-api/internal/repository"
	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// UserService implements the business logic for user and auth operations.
type UserService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtManager       *auth.JWTManager
	producer         event.Publisher
	logger           *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	producer event.Publisher,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtManager:       jwtManager,
		producer:         producer,
		logger:           logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Username string
	Password string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	Email    *string
	FullName *string
}

// Register creates a new user account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a user with username and password, returning tokens.
// A wrong username and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, nil, invalidCredentials()
	}

	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, invalidCredentials()
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, tokens, nil
}

// RefreshToken validates a refresh token, rotates it and returns a new token pair.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenError(err)
	}

	// Look up the stored token hash.
	tokenHash := hashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.UnauthorizedCode("INVALID_TOKEN", "refresh token not found")
	}

	if storedToken.RevokedAt != nil {
		return nil, apperrors.UnauthorizedCode("INVALID_TOKEN", "refresh token has been revoked")
	}

	if time.Now().UTC().After(storedToken.ExpiresAt) {
		return nil, apperrors.UnauthorizedCode("EXPIRED_TOKEN", "refresh token has expired")
	}

	// Rotate: revoke the presented token before issuing a new pair.
	if err := s.refreshTokenRepo.Revoke(ctx, tokenHash); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke old refresh token",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is deactivated")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
	)

	return tokens, nil
}

// Logout revokes the presented refresh token. The access token simply expires.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return TokenError(err)
	}

	if err := s.refreshTokenRepo.Revoke(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", claims.UserID),
	)

	return nil
}

// ChangePassword allows an authenticated user to change their password.
// All existing refresh tokens are revoked, forcing re-login on other sessions.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeByUserID(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password change",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// GetProfile retrieves a user by their ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// generateTokenPair creates an access/refresh token pair and stores the refresh token hash.
func (s *UserService) generateTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.RefreshExpiry())
	if err := s.refreshTokenRepo.Create(ctx, user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// invalidCredentials returns the uniform 401 for a failed login. Username
// lookups and password mismatches map to the same error so account existence
// is not leaked.
func invalidCredentials() *apperrors.AppError {
	return apperrors.UnauthorizedCode("INVALID_CREDENTIALS", "invalid username or password")
}

// TokenError maps token validation failures to their API error codes. It is
// shared with the HTTP layer so the auth middleware reports the same codes as
// the refresh and logout endpoints.
func TokenError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return apperrors.UnauthorizedCode("EXPIRED_TOKEN", "token has expired")
	case errors.Is(err, auth.ErrWrongTokenType):
		return apperrors.UnauthorizedCode("WRONG_TOKEN_TYPE", "wrong token type for this operation")
	default:
		return apperrors.UnauthorizedCode("INVALID_TOKEN", "token is invalid")
	}
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
