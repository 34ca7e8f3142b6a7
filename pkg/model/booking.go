package model

import (
	"time"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Terminal reports whether a status permits no further transitions.
func Terminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// Booking is one slot request. Status leaves PENDING exactly once, through
// the repository's conditional transition; no other code path writes it.
type Booking struct {
	ID            int64         `json:"id" bson:"_id"`
	RequesterID   string        `json:"requester_id" bson:"requester_id" validate:"required"`
	RequesterName string        `json:"requester_name" bson:"requester_name" validate:"omitempty,max=100"`
	Date          string        `json:"date,omitempty" bson:"date,omitempty" validate:"omitempty,bookingday"`
	Status        string        `json:"status" bson:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
	Files         []BookingFile `json:"files" bson:"files" validate:"required,min=1,dive"`
	DecidedBy     string        `json:"decided_by,omitempty" bson:"decided_by,omitempty"`
	RejectReason  string        `json:"reject_reason,omitempty" bson:"reject_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

// BookingFile is one attachment collected during intake. FileID is the
// transport's opaque handle; the core never touches file content.
type BookingFile struct {
	FileID   string `json:"file_id" bson:"file_id" validate:"required"`
	FileType string `json:"file_type" bson:"file_type" validate:"required,oneof=document photo"`
	FileName string `json:"file_name,omitempty" bson:"file_name,omitempty" validate:"omitempty,max=255"`
}

// BookingSummary is the listing shape exposed to requesters, newest first.
type BookingSummary struct {
	ID     int64  `json:"id" bson:"_id"`
	Date   string `json:"date,omitempty" bson:"date,omitempty"`
	Status string `json:"status" bson:"status"`
}
