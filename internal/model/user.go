// Package model defines the data structures used throughout the application.
package model

import "time"

// Auth provider values for User.AuthProvider.
const (
	ProviderLocal  = "local"
	ProviderGitHub = "github"
)

// User represents a registered account, created either by local
// username/password registration or by a first GitHub login.
//
// HashedPassword is empty for provider-only accounts; those users never set
// a local password. ExternalID holds the provider's user id (GitHub's numeric
// id rendered as a string) and is empty for purely local accounts. Username,
// email, and external id are each unique; the store enforces this, uniqueness
// of email and external id applying only when the value is present.
type User struct {
	ID             string    `json:"id"           db:"id"`
	Username       string    `json:"username"     db:"username"`
	FullName       string    `json:"fullname"     db:"fullname"`
	Email          string    `json:"email"        db:"email"`
	AvatarURL      string    `json:"avatarUrl"    db:"avatar_url"`
	HashedPassword string    `json:"-"            db:"hashed_password"`
	AuthProvider   string    `json:"authProvider" db:"auth_provider"`
	ExternalID     string    `json:"-"            db:"external_id"`
	CreatedAt      time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"    db:"updated_at"`
}

// PublicUser is the externally visible projection of a User. Credential and
// federation internals never leave the service in API responses.
type PublicUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullname,omitempty"`
	Email        string `json:"email,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	AuthProvider string `json:"authProvider"`
}

// Public returns the redacted view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		AvatarURL:    u.AvatarURL,
		AuthProvider: u.AuthProvider,
	}
}
