// Package notify fans decision outcomes out to everyone who should hear
// about them. Message building is pure; delivery goes through Kafka so a
// slow transport never blocks a decision.
package notify

import (
	"context"
	"fmt"
	"slotgate/pkg/kafka"
	"slotgate/pkg/logger"
	"slotgate/pkg/model"
	"strconv"
)

const (
	EventCreated          = "created"
	EventApproved         = "approved"
	EventAutoRejectedFull = "auto_rejected_full"
	EventRejected         = "rejected"

	// EventReasonRequested goes straight through the Messenger, not the
	// fan-out: it targets exactly one approver mid-dialogue.
	EventReasonRequested = "reason_requested"
)

// Notification is one message for one recipient.
type Notification struct {
	RecipientID string `json:"recipient_id"`
	Kind        string `json:"kind"`
	BookingID   int64  `json:"booking_id"`
	Date        string `json:"date,omitempty"`
	DecidedBy   string `json:"decided_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Text        string `json:"text"`
}

// Publisher is the slice of the Kafka producer the fan-out needs.
type Publisher interface {
	PublishBatch(ctx context.Context, messages []kafka.Message) error
}

type Fanout struct {
	publisher   Publisher
	approverIDs []string
	source      string
	log         *logger.Logger
}

func NewFanout(publisher Publisher, approverIDs []string, source string, log *logger.Logger) *Fanout {
	return &Fanout{
		publisher:   publisher,
		approverIDs: approverIDs,
		source:      source,
		log:         log,
	}
}

// BuildNotifications produces the full recipient set for one event. The
// requester always hears; approvers hear about everything except creation,
// which they learn through their prompts instead.
func BuildNotifications(kind string, booking *model.Booking, approverIDs []string) []Notification {
	base := Notification{
		Kind:      kind,
		BookingID: booking.ID,
		Date:      booking.Date,
		DecidedBy: booking.DecidedBy,
		Reason:    booking.RejectReason,
	}

	requester := base
	requester.RecipientID = booking.RequesterID
	requester.Text = requesterText(kind, booking)
	notifications := []Notification{requester}

	if kind == EventCreated {
		return notifications
	}

	approverLine := approverText(kind, booking)
	for _, approverID := range approverIDs {
		n := base
		n.RecipientID = approverID
		n.Text = approverLine
		notifications = append(notifications, n)
	}

	return notifications
}

func requesterText(kind string, booking *model.Booking) string {
	switch kind {
	case EventCreated:
		if booking.Date == "" {
			return fmt.Sprintf("Your booking #%d was submitted and is awaiting approval. A date will be assigned on approval.", booking.ID)
		}
		return fmt.Sprintf("Your booking #%d for %s was submitted and is awaiting approval.", booking.ID, booking.Date)
	case EventApproved:
		return fmt.Sprintf("Your booking #%d for %s was approved.", booking.ID, booking.Date)
	case EventAutoRejectedFull:
		return fmt.Sprintf("Your booking #%d was rejected: %s is fully booked. Please request another date.", booking.ID, booking.Date)
	case EventRejected:
		return fmt.Sprintf("Your booking #%d was rejected: %s", booking.ID, booking.RejectReason)
	}
	return ""
}

func approverText(kind string, booking *model.Booking) string {
	switch kind {
	case EventApproved:
		return fmt.Sprintf("Booking #%d (%s) was approved by %s.", booking.ID, booking.RequesterName, booking.DecidedBy)
	case EventAutoRejectedFull:
		return fmt.Sprintf("Booking #%d (%s) was auto-rejected: %s is fully booked.", booking.ID, booking.RequesterName, booking.Date)
	case EventRejected:
		return fmt.Sprintf("Booking #%d (%s) was rejected by %s: %s", booking.ID, booking.RequesterName, booking.DecidedBy, booking.RejectReason)
	}
	return ""
}

// Publish fans one event out to Kafka, one message per recipient keyed by
// recipient id. Failures are logged and swallowed: the decision that caused
// the event is already committed and must not be rolled back or retried for
// the sake of a notification.
func (f *Fanout) Publish(ctx context.Context, kind string, booking *model.Booking) {
	notifications := BuildNotifications(kind, booking, f.approverIDs)

	messages := make([]kafka.Message, 0, len(notifications))
	for _, n := range notifications {
		messages = append(messages, kafka.NewMessage().
			WithKey(n.RecipientID).
			WithValue(n).
			WithEventType(kind).
			WithBookingID(strconv.FormatInt(booking.ID, 10)).
			WithSource(f.source).
			Build())
	}

	if err := f.publisher.PublishBatch(ctx, messages); err != nil {
		f.log.Error("Failed to publish notifications",
			"kind", kind,
			"booking_id", booking.ID,
			"recipients", len(messages),
			"error", err,
		)
		return
	}

	f.log.Info("Notifications published",
		"kind", kind,
		"booking_id", booking.ID,
		"recipients", len(messages),
	)
}
