// Package account implements user registration, login and the admin
// activation workflow.
package account

import (
	"time"

	"github.com/coviddx/platform/internal/shared/types"
)

// Role defines what an account is allowed to do
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status defines the activation state of an account. New registrations
// are pending until an admin activates them; only activated accounts
// can log in.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActivated Status = "activated"
)

// Account represents a registered user of the platform
type Account struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	LoginID  string   `json:"login_id"`
	Email    string   `json:"email"`
	Mobile   string   `json:"mobile"`
	Locality string   `json:"locality"`
	Address  string   `json:"address"`
	City     string   `json:"city"`

	Role   Role   `json:"role"`
	Status Status `json:"status"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActivated reports whether the account may log in.
func (a *Account) IsActivated() bool {
	return a.Status == StatusActivated
}

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	Name     string `json:"name"`
	LoginID  string `json:"login_id"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Locality string `json:"locality"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

// LoginRequest is the payload for login
type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account it belongs to
type LoginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}
