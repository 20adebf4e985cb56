package models

import (
	"fmt"
	"strings"
)

// Identity is a locally registered user stored in the identity collection.
//
// Passwords are held only as an encoded argon2id hash. LegacyPassword is populated when an older document still
// carries a plaintext password; it is cleared the first time the credential is verified.
type Identity struct {
	ID                  string `json:"id"`
	FullName            string `json:"fullName"`
	Email               string `json:"email"`
	PasswordHash        string `json:"passwordHash,omitempty"`
	LegacyPassword      string `json:"password,omitempty"`
	CreatedAt           string `json:"createdAt"`
	HasCompletedPayment bool   `json:"hasCompletedPayment"`
}

// Ref returns the public projection of the identity stored in session and account documents.
func (i Identity) Ref() UserRef {
	return UserRef{ID: i.ID, FullName: i.FullName, Email: i.Email}
}

// Validate checks the identity has a key and an email.
func (i Identity) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("identity id is required")
	}
	if strings.TrimSpace(i.Email) == "" {
		return fmt.Errorf("identity email is required")
	}
	return nil
}

// HasCredential reports whether the identity can be verified at all.
func (i Identity) HasCredential() bool {
	return i.PasswordHash != "" || i.LegacyPassword != ""
}

// NormalizeEmail is the canonical form used for the uniqueness check.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRef is the nullable user reference carried by session and account documents.
type UserRef struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// IsZero reports whether no user fields are set.
func (u UserRef) IsZero() bool {
	return u.ID == "" && u.FullName == "" && u.Email == ""
}
