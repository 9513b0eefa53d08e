package models

import "time"

// Expense is a single expense record as stored in the expenses collection.
// ID, OwnerUsername and CreatedAt are fixed at creation; the remaining
// fields may be replaced by an update.
type Expense struct {
	ID            string    `bson:"_id" json:"id"`
	OwnerUsername string    `bson:"owner_username" json:"ownerUsername"`
	Amount        float64   `bson:"amount" json:"amount"`
	Category      string    `bson:"category" json:"category"`
	Description   string    `bson:"description" json:"description"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}
