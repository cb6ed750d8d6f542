package types

import "time"

// User represents an account in the system.
// It contains identity, admin flag, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// IsAdmin is the profile-level admin flag. The admins table is
	// consulted first; this flag is the fallback.
	IsAdmin bool `json:"isAdmin" db:"is_admin"`

	// ExternalID links the account to an external identity provider
	// subject, when the user signed in through one.
	ExternalID *string `json:"externalId,omitempty" db:"external_id"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AdminRecord marks a user as holding administrative privileges.
type AdminRecord struct {
	UserID    int       `json:"userId" db:"user_id"`
	GrantedBy *int      `json:"grantedBy,omitempty" db:"granted_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
