package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleUser     = "user"
)

// User is the signed-in principal as returned by the auth and current-user
// endpoints. The role decides which panel a caller may open.
type User struct {
	ID       string `json:"_id"      validate:"required"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin operator user"`
}

// AuthResult is the body returned by register and login.
type AuthResult struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken" validate:"required"`
}

// Account is a stored credential record. Only the stub server persists these.
type Account struct {
	User
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
