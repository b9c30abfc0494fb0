package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/repositories"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/auth"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

// AuthUserStore is the part of the user repository used by authentication
type AuthUserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// RefreshTokenStore persists refresh tokens
type RefreshTokenStore interface {
	Create(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	Find(ctx context.Context, token string, now time.Time) (*repositories.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

// TokenIssuer signs token pairs
type TokenIssuer interface {
	GenerateTokenPair(user *models.User) (*auth.TokenPair, error)
}

// AuthService handles authentication operations
type AuthService struct {
	users  AuthUserStore
	tokens RefreshTokenStore
	issuer TokenIssuer
	audit  AuditRecorder
	now    Clock
}

// NewAuthService creates a new AuthService
func NewAuthService(users AuthUserStore, tokens RefreshTokenStore, issuer TokenIssuer, audit AuditRecorder) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		audit:  audit,
		now:    time.Now,
	}
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.NewValidationError("password must be at least 8 characters long")
	}

	hasLetter, hasDigit := false, false
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.NewValidationError("password must contain at least one letter and one digit")
	}
	return nil
}

// Register signs up a student or an instructor and logs them in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if req.RoleType != models.RoleStudent && req.RoleType != models.RoleInstructor {
		return nil, apperrors.NewValidationError("only students and instructors can register")
	}

	user, err := buildUser(req.Email, req.Password, req.Name, req.RoleType, req.StudentNumber, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, user.ID, ActionRegister, fmt.Sprintf("registered as %s", user.RoleType))

	return s.issue(ctx, user)
}

// buildUser validates sign up data and hashes the password
func buildUser(email, password, name string, role models.RoleType, studentNumber *string, departmentID *int64) (*models.User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if role == models.RoleStudent && (studentNumber == nil || strings.TrimSpace(*studentNumber) == "") {
		return nil, apperrors.ErrStudentNumberRequired
	}
	if role != models.RoleStudent {
		studentNumber = nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	return &models.User{
		Email:         strings.ToLower(strings.TrimSpace(email)),
		Password:      hash,
		Name:          strings.TrimSpace(name),
		StudentNumber: studentNumber,
		RoleType:      role,
		DepartmentID:  departmentID,
		IsActive:      true,
	}, nil
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError("account is disabled")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn().Err(err).Int64("userID", user.ID).Msg("Could not update last login time")
	} else {
		user.LastLoginAt = &now
	}
	s.audit.Record(ctx, user.ID, ActionLogin, "")

	return s.issue(ctx, user)
}

// RefreshToken rotates a refresh token: the presented one is revoked and a
// new pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokens.Find(ctx, refreshToken, s.now())
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError("account is disabled")
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.issue(ctx, user)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// Me returns the profile of the caller
func (s *AuthService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// issue creates a token pair and stores the refresh half
func (s *AuthService) issue(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.issuer.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokens.Create(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiry); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             pair.ExpiresIn,
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: pair.RefreshExpiresIn,
		},
		User: dto.NewUserResponse(user),
	}, nil
}
