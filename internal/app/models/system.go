package models

import "time"

// Setting is one row of the system settings key-value table
type Setting struct {
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description *string   `json:"description,omitempty" db:"description"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// AuditLog records an action taken by a user
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *int64    `json:"userId,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	IPAddress *string   `json:"ipAddress,omitempty" db:"ip_address"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UserName  *string   `json:"userName,omitempty" db:"user_name"`
}
