package models

import "time"

const AccessRequestPending = "pending"

// AccessRequest records an unauthorized user asking to be let in.
// Written at most once per user; reviewed manually by an admin.
type AccessRequest struct {
	UserID      string    `firestore:"user_id" json:"user_id"`
	Username    string    `firestore:"username" json:"username"`
	DisplayName string    `firestore:"display_name" json:"display_name"`
	Status      string    `firestore:"status" json:"status"`
	RequestedAt time.Time `firestore:"requested_at" json:"requested_at"`
}
