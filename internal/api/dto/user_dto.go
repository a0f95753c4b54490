package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/request-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	Name      string  `json:"name" validate:"required,min=2,max=100"`
	Role      string  `json:"role" validate:"required,oneof=EMPLOYEE MANAGER"`
	ManagerID *string `json:"managerId" validate:"omitempty,uuid" label:"Manager ID"`
}

// Normalize treats an empty managerId like an absent one.
func (r *RegisterRequest) Normalize() {
	r.ManagerID = nilIfBlank(r.ManagerID)
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AssignManagerRequest payload for manager reassignment. A null managerId clears it.
type AssignManagerRequest struct {
	ManagerID *string `json:"managerId" validate:"omitempty,uuid" label:"Manager ID"`
}

// Normalize treats an empty managerId like null.
func (r *AssignManagerRequest) Normalize() {
	r.ManagerID = nilIfBlank(r.ManagerID)
}

func nilIfBlank(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}

// UserSummaryResponse is the public projection of a user.
type UserSummaryResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	ManagerID *string     `json:"managerId,omitempty"`
}

// UserResponse is a full user without credentials.
type UserResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Role      domain.Role           `json:"role"`
	ManagerID *string               `json:"managerId"`
	Manager   *UserSummaryResponse  `json:"manager,omitempty"`
	Employees []UserSummaryResponse `json:"employees,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// NewUserSummary maps a domain summary.
func NewUserSummary(s *domain.UserSummary) *UserSummaryResponse {
	if s == nil {
		return nil
	}
	return &UserSummaryResponse{ID: s.ID, Name: s.Name, Email: s.Email, Role: s.Role, ManagerID: s.ManagerID}
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ManagerID: u.ManagerID,
		Manager:   NewUserSummary(u.Manager),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Employees != nil {
		resp.Employees = make([]UserSummaryResponse, 0, len(u.Employees))
		for i := range u.Employees {
			resp.Employees = append(resp.Employees, *NewUserSummary(&u.Employees[i]))
		}
	}
	return resp
}

// NewUserList maps a slice of users.
func NewUserList(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// NewAuthResponse maps a session.
func NewAuthResponse(s *domain.Session) AuthResponse {
	return AuthResponse{User: NewUserResponse(s.User), Token: s.Token, ExpiresAt: s.ExpiresAt}
}
