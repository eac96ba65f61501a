package user

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/riseai/rise-chat/internal/model/identity"
)

// User is a backend account record as served by the development API.
type User struct {
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	FullName     string        `json:"full_name"`
	Role         identity.Role `json:"role"`
	PasswordHash string        `json:"-"`
}

// HashPassword returns the hex SHA-256 digest stored for account passwords.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword reports whether password matches the stored digest.
func (u User) CheckPassword(password string) bool {
	return u.PasswordHash != "" && u.PasswordHash == HashPassword(password)
}

// Seed provides the demo accounts used for local development.
func Seed() []User {
	return []User{
		{
			Username:     "demo_employee",
			Email:        "employee@riseai.com",
			FullName:     "Demo Employee",
			Role:         identity.RoleEmployee,
			PasswordHash: HashPassword("password123"),
		},
		{
			Username:     "demo_manager",
			Email:        "manager@riseai.com",
			FullName:     "Demo Manager",
			Role:         identity.RoleManager,
			PasswordHash: HashPassword("password123"),
		},
	}
}
