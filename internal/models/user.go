package models

import "time"

// User is an account record as stored in the users collection.
// PasswordHash is a bcrypt hash; the plaintext is never persisted.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
}

// Sanitize returns a copy of the user without the password hash populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}
