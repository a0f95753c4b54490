package domain

import "time"

// Role tags a user as a plain employee or a manager.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager:
		return true
	}
	return false
}

// ManagesTeam reports whether the role sees requests assigned to its direct reports.
func (r Role) ManagesTeam() bool {
	return r == RoleManager
}

// User is an account that creates, performs or decides on requests.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	ManagerID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Manager   *UserSummary
	Employees []UserSummary
}

// UserSummary is the public projection embedded in other records.
type UserSummary struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	ManagerID *string
}

// Summary projects the user without credentials.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ManagerID: u.ManagerID,
	}
}
