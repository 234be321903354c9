// Package models defines server-side records persisted in the database.
// Constructors validate invariants so the rest of the code can trust the values.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/anoninbox/internal/common"
)

// User is an account that owns an inbox. A local user has a PasswordHash and
// no Email; a user created through the external identity provider has an
// Email and no PasswordHash.
type User struct {
	ID           int64
	UserName     string
	PasswordHash []byte
	Email        *string
	CurrentLink  *string
	CreatedAt    time.Time
}

// NewLocalUser builds a password-backed user record.
func NewLocalUser(userName string, passwordHash []byte) (*User, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrInvalidInput)
	}
	if len(passwordHash) == 0 {
		return nil, fmt.Errorf("%w: empty password hash", common.ErrInvalidInput)
	}
	return &User{UserName: userName, PasswordHash: passwordHash}, nil
}

// NewExternalUser builds a user identified by a verified email.
func NewExternalUser(userName, email string) (*User, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email %q", common.ErrInvalidInput, email)
	}
	return &User{UserName: userName, Email: &email}, nil
}

// IsExternal reports whether the user signs in through the identity provider.
func (u *User) IsExternal() bool {
	return u.Email != nil
}
