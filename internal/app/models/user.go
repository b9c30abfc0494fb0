package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID            int64      `json:"id" db:"id" example:"1"`
	Email         string     `json:"email" db:"email" example:"kim@campus.ac.kr"`
	Password      string     `json:"-" db:"password"`
	Name          string     `json:"name" db:"name" example:"Kim Minji"`
	StudentNumber *string    `json:"studentNumber,omitempty" db:"student_number" example:"20231234"` // Only students carry a number
	RoleType      RoleType   `json:"roleType" db:"role_type" example:"student"`
	DepartmentID  *int64     `json:"departmentId,omitempty" db:"department_id"`
	IsActive      bool       `json:"isActive" db:"is_active" example:"true"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.RoleType == RoleAdmin
}
