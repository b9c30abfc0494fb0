package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent    RoleType = "student"
	RoleInstructor RoleType = "instructor"
	RoleAdmin      RoleType = "admin"
)

// Valid reports whether r is a known role
func (r RoleType) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// AttendanceType is how students check in to a session
type AttendanceType string

const (
	AttendanceByCode   AttendanceType = "code"
	AttendanceByQR     AttendanceType = "qr"
	AttendanceByManual AttendanceType = "manual"
)

// Valid reports whether t is a known attendance type
func (t AttendanceType) Valid() bool {
	switch t {
	case AttendanceByCode, AttendanceByQR, AttendanceByManual:
		return true
	}
	return false
}

// RequiresCode reports whether a check-in must present the session code.
// QR links embed the code, so they are verified the same way.
func (t AttendanceType) RequiresCode() bool {
	return t == AttendanceByCode || t == AttendanceByQR
}
