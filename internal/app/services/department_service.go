package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

// DepartmentStore persists departments
type DepartmentStore interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	GetAll(ctx context.Context) ([]*models.Department, error)
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id int64) error
}

// DepartmentService handles department-related operations
type DepartmentService struct {
	departments DepartmentStore
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departments DepartmentStore) *DepartmentService {
	return &DepartmentService{departments: departments}
}

// isValidDepartmentCode checks if a department code is uppercase alphanumeric
func isValidDepartmentCode(code string) bool {
	if code == "" {
		return false
	}
	for _, char := range code {
		if !((char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}

func departmentFromRequest(req *dto.DepartmentRequest) (*models.Department, error) {
	department := &models.Department{
		Name: strings.TrimSpace(req.Name),
		Code: strings.ToUpper(strings.TrimSpace(req.Code)),
	}
	if department.Name == "" {
		return nil, apperrors.NewValidationError("department name cannot be empty")
	}
	if !isValidDepartmentCode(department.Code) {
		return nil, apperrors.NewValidationError("department code must be alphanumeric")
	}
	return department, nil
}

// Create adds a department
func (s *DepartmentService) Create(ctx context.Context, req *dto.DepartmentRequest) (*models.Department, error) {
	department, err := departmentFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, err
	}
	return department, nil
}

// GetAll lists departments
func (s *DepartmentService) GetAll(ctx context.Context) ([]*models.Department, error) {
	return s.departments.GetAll(ctx)
}

// Update renames a department
func (s *DepartmentService) Update(ctx context.Context, id int64, req *dto.DepartmentRequest) (*models.Department, error) {
	existing, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	department, err := departmentFromRequest(req)
	if err != nil {
		return nil, err
	}
	department.ID = existing.ID
	department.CreatedAt = existing.CreatedAt

	if err := s.departments.Update(ctx, department); err != nil {
		return nil, fmt.Errorf("error updating department: %w", err)
	}
	return department, nil
}

// Delete removes a department that nothing refers to
func (s *DepartmentService) Delete(ctx context.Context, id int64) error {
	return s.departments.Delete(ctx, id)
}
