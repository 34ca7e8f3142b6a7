package model

import "time"

// Intake states. Strictly linear; the only back-edge is an explicit cancel,
// which destroys the session.
const (
	StateCollectingMetadata    = "collecting_metadata"
	StateChoosingDate          = "choosing_date"
	StateCollectingAttachments = "collecting_attachments"
)

// IntakeSession is one requester's in-progress dialogue, keyed by requester
// id. It lives only between inputs; losing it across a restart is fine, the
// requester just starts over.
type IntakeSession struct {
	RequesterID   string        `json:"requester_id" bson:"_id"`
	RequesterName string        `json:"requester_name" bson:"requester_name"`
	State         string        `json:"state" bson:"state"`
	FileCount     int           `json:"file_count" bson:"file_count"`
	OfferedDates  []string      `json:"offered_dates" bson:"offered_dates"`
	ChosenDate    string        `json:"chosen_date,omitempty" bson:"chosen_date,omitempty"`
	Files         []BookingFile `json:"files" bson:"files"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" bson:"updated_at"`
}

// Remaining is how many attachments are still expected.
func (s *IntakeSession) Remaining() int {
	return s.FileCount - len(s.Files)
}
