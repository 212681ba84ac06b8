// Package user defines the user model persisted on signup and looked up on login.
package user

import "time"

// User represents a registered account.
// It is created once on signup and never updated afterwards.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"user_id" bson:"user_id"`

	// Email is stored trimmed and lowercased.
	Email string `json:"email" bson:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"password" bson:"password"`

	JobTitle string `json:"job_title" bson:"job_title"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
