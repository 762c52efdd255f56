package domain

import (
	"net/mail"
	"strings"
	"time"
)

// User is a registered account. IDs are assigned by the store.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUser builds a validated User. The password must already be hashed.
func NewUser(username, email, hashedPassword string, role Role) (*User, error) {
	if role == "" {
		role = RoleUser
	}
	u := &User{
		Username:       strings.TrimSpace(username),
		Email:          strings.TrimSpace(email),
		HashedPassword: hashedPassword,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the user's fields. The ID is not checked because it is
// only known after the user has been stored.
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if n := len(u.Username); n < 3 || n > 50 {
		return ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(u.Email); err != nil || len(u.Email) > 100 {
		return ErrInvalidEmail
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// Actor is the compact view of a user carried in realtime events.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Actor returns the event-facing summary of u.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}
