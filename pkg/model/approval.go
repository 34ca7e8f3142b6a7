package model

import "time"

// ApprovalPrompt is one outstanding "please decide" message sent to one
// approver for one booking. All prompts for a booking are retracted together
// once any approver's decision lands.
type ApprovalPrompt struct {
	BookingID    int64     `json:"booking_id" bson:"booking_id"`
	ApproverID   string    `json:"approver_id" bson:"approver_id"`
	PromptHandle string    `json:"prompt_handle" bson:"prompt_handle"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// PendingRejection holds the booking an approver is about to reject while
// their free-text reason is awaited. Keyed by approver, not booking: at most
// one outstanding per approver, and a second reject overwrites the first
// (last-write-wins, by contract).
type PendingRejection struct {
	ApproverID string    `json:"approver_id" bson:"_id"`
	BookingID  int64     `json:"booking_id" bson:"booking_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// DateLock is an advisory per-date lock serializing the approve-time
// capacity check against concurrent approvals for the same date.
type DateLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
