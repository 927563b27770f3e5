package domain

import "time"

// User is the credential record for students and instructors.
// PasswordHash is nil for accounts provisioned through Google sign-in.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   *string
	Role           Role
	GoogleID       *string
	ProfilePicture *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword reports whether password login is possible for the account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
