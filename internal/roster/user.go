package roster

import "errors"

// Roles determine which handler groups a session may invoke. Role is fixed
// at creation; there is no role-change operation.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	// ErrNotFound is returned when a user id or (username, role) pair does
	// not match any account.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when a create or rename would reuse
	// an existing username. Usernames are unique across all roles.
	ErrDuplicateUsername = errors.New("username already taken")
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleTeacher || role == RoleStudent
}

// User is an account row. Password holds the bcrypt hash, never plaintext.
// Subject is set only for teachers.
type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Password string  `json:"-"`
	Role     string  `json:"role"`
	Name     string  `json:"name"`
	Subject  *string `json:"subject,omitempty"`
}

// SubjectOrEmpty returns the subject label, or "" when unset.
func (u User) SubjectOrEmpty() string {
	if u.Subject == nil {
		return ""
	}
	return *u.Subject
}
