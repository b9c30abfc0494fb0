package services

import (
	"context"
	"fmt"
	"strings"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/auth"
)

// UserStore is the part of the user repository used by user administration
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter dto.UserFilter) ([]*models.User, dto.PaginationInfo, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// SessionRevoker ends every login of a user
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// UserService handles user administration
type UserService struct {
	users   UserStore
	revoker SessionRevoker
	audit   AuditRecorder
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, revoker SessionRevoker, audit AuditRecorder) *UserService {
	return &UserService{
		users:   users,
		revoker: revoker,
		audit:   audit,
	}
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, filter dto.UserFilter) ([]*models.User, dto.PaginationInfo, error) {
	return s.users.List(ctx, filter)
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create adds an account of any role
func (s *UserService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateUserRequest) (*models.User, error) {
	if !req.RoleType.Valid() {
		return nil, apperrors.NewValidationError("unknown role")
	}

	user, err := buildUser(req.Email, req.Password, req.Name, req.RoleType, req.StudentNumber, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.UserID, ActionUserCreate, fmt.Sprintf("created %s %s", user.RoleType, user.Email))
	return user, nil
}

// Update applies the non-nil fields of req. Changing the password or
// disabling the account signs the user out everywhere.
func (s *UserService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.RoleType != nil {
		if !req.RoleType.Valid() {
			return nil, apperrors.NewValidationError("unknown role")
		}
		if id == actor.UserID && *req.RoleType != user.RoleType {
			return nil, apperrors.NewValidationError("you cannot change your own role")
		}
		user.RoleType = *req.RoleType
	}
	if req.StudentNumber != nil {
		user.StudentNumber = req.StudentNumber
	}
	if req.DepartmentID != nil {
		user.DepartmentID = req.DepartmentID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if user.RoleType == models.RoleStudent && (user.StudentNumber == nil || *user.StudentNumber == "") {
		return nil, apperrors.ErrStudentNumberRequired
	}
	if user.RoleType != models.RoleStudent {
		user.StudentNumber = nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	signOut := req.IsActive != nil && !*req.IsActive
	if req.Password != nil {
		if err := ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
		signOut = true
	}
	if signOut {
		if err := s.revoker.RevokeAllForUser(ctx, id); err != nil {
			return nil, fmt.Errorf("error revoking sessions: %w", err)
		}
	}

	s.audit.Record(ctx, actor.UserID, ActionUserUpdate, fmt.Sprintf("updated user %d", id))
	return user, nil
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	if id == actor.UserID {
		return apperrors.ErrCannotDeleteCurrentUser
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, actor.UserID, ActionUserDelete, fmt.Sprintf("deleted user %d", id))
	return nil
}
