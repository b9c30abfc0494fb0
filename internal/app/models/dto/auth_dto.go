package dto

import (
	"time"

	"github.com/yigit/rollcall/internal/app/models"
)

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest is a self-service sign up. Admin accounts are created by the CLI.
type RegisterRequest struct {
	Email         string          `json:"email" binding:"required,email"`
	Password      string          `json:"password" binding:"required,min=8"`
	Name          string          `json:"name" binding:"required,min=2,max=100"`
	RoleType      models.RoleType `json:"roleType" binding:"required,oneof=student instructor"`
	StudentNumber *string         `json:"studentNumber" binding:"omitempty,student_number"`
	DepartmentID  *int64          `json:"departmentId" binding:"omitempty,min=1"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID            int64           `json:"id"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	RoleType      models.RoleType `json:"roleType"`
	StudentNumber *string         `json:"studentNumber,omitempty"`
	DepartmentID  *int64          `json:"departmentId,omitempty"`
	IsActive      bool            `json:"isActive"`
	LastLoginAt   *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse maps a user row to its public representation
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		RoleType:      u.RoleType,
		StudentNumber: u.StudentNumber,
		DepartmentID:  u.DepartmentID,
		IsActive:      u.IsActive,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// CreateUserRequest is used by admins to create any kind of account
type CreateUserRequest struct {
	Email         string          `json:"email" binding:"required,email"`
	Password      string          `json:"password" binding:"required,min=8"`
	Name          string          `json:"name" binding:"required,min=2,max=100"`
	RoleType      models.RoleType `json:"roleType" binding:"required,oneof=student instructor admin"`
	StudentNumber *string         `json:"studentNumber" binding:"omitempty,student_number"`
	DepartmentID  *int64          `json:"departmentId" binding:"omitempty,min=1"`
}

// UpdateUserRequest carries the fields an admin may change. Nil fields are left as is.
type UpdateUserRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=2,max=100"`
	Email         *string          `json:"email" binding:"omitempty,email"`
	RoleType      *models.RoleType `json:"roleType" binding:"omitempty,oneof=student instructor admin"`
	StudentNumber *string          `json:"studentNumber" binding:"omitempty,student_number"`
	DepartmentID  *int64           `json:"departmentId" binding:"omitempty,min=1"`
	IsActive      *bool            `json:"isActive"`
	Password      *string          `json:"password" binding:"omitempty,min=8"`
}

// UserFilter narrows the admin user list
type UserFilter struct {
	Role  *models.RoleType
	Query string
	Page  int
	Size  int
}
