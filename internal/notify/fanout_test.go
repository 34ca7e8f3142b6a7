package notify

import (
	"context"
	"slotgate/pkg/kafka"
	"slotgate/pkg/logger"
	"slotgate/pkg/model"
	"strings"
	"testing"
)

var approvers = []string{"admin-1", "admin-2", "admin-3"}

func decidedBooking(status, decidedBy, reason string) *model.Booking {
	return &model.Booking{
		ID:            42,
		RequesterID:   "user-7",
		RequesterName: "Dana",
		Date:          "2026-09-06",
		Status:        status,
		DecidedBy:     decidedBy,
		RejectReason:  reason,
	}
}

func TestBuildNotificationsCreated(t *testing.T) {
	booking := decidedBooking(model.StatusPending, "", "")

	notifications := BuildNotifications(EventCreated, booking, approvers)

	if len(notifications) != 1 {
		t.Fatalf("expected only the requester to be notified, got %d recipients", len(notifications))
	}
	if notifications[0].RecipientID != "user-7" {
		t.Errorf("expected recipient user-7, got %s", notifications[0].RecipientID)
	}
	if !strings.Contains(notifications[0].Text, "#42") {
		t.Errorf("expected text to name the booking, got %q", notifications[0].Text)
	}
}

func TestBuildNotificationsDecision(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		booking *model.Booking
		want    string
	}{
		{
			name:    "approved",
			kind:    EventApproved,
			booking: decidedBooking(model.StatusApproved, "admin-2", ""),
			want:    "approved",
		},
		{
			name:    "auto-rejected full date",
			kind:    EventAutoRejectedFull,
			booking: decidedBooking(model.StatusRejected, "admin-1", ""),
			want:    "fully booked",
		},
		{
			name:    "rejected with reason",
			kind:    EventRejected,
			booking: decidedBooking(model.StatusRejected, "admin-3", "documents incomplete"),
			want:    "documents incomplete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications := BuildNotifications(tt.kind, tt.booking, approvers)

			if len(notifications) != 1+len(approvers) {
				t.Fatalf("expected requester plus all approvers, got %d recipients", len(notifications))
			}

			recipients := map[string]bool{}
			for _, n := range notifications {
				recipients[n.RecipientID] = true
				if !strings.Contains(n.Text, tt.want) {
					t.Errorf("recipient %s text %q missing %q", n.RecipientID, n.Text, tt.want)
				}
				if n.BookingID != 42 {
					t.Errorf("recipient %s got booking id %d", n.RecipientID, n.BookingID)
				}
			}
			if !recipients["user-7"] {
				t.Error("requester missing from recipient set")
			}
			for _, a := range approvers {
				if !recipients[a] {
					t.Errorf("approver %s missing from recipient set", a)
				}
			}
		})
	}
}

func TestBuildNotificationsReasonRoundTrip(t *testing.T) {
	reason := "  the exact reason,  verbatim "
	booking := decidedBooking(model.StatusRejected, "admin-1", reason)

	notifications := BuildNotifications(EventRejected, booking, approvers)
	for _, n := range notifications {
		if n.Reason != reason {
			t.Errorf("reason altered in flight: got %q, want %q", n.Reason, reason)
		}
	}
}

type capturePublisher struct {
	messages []kafka.Message
	err      error
}

func (p *capturePublisher) PublishBatch(ctx context.Context, messages []kafka.Message) error {
	p.messages = append(p.messages, messages...)
	return p.err
}

func TestFanoutPublish(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	pub := &capturePublisher{}
	fanout := NewFanout(pub, approvers, "slotgate-test", log)

	booking := decidedBooking(model.StatusApproved, "admin-2", "")
	fanout.Publish(context.Background(), EventApproved, booking)

	if len(pub.messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(pub.messages))
	}
	for _, msg := range pub.messages {
		if msg.Key == "" {
			t.Error("message published without a recipient key")
		}
		if msg.GetEventType() != EventApproved {
			t.Errorf("expected event type %s, got %s", EventApproved, msg.GetEventType())
		}
		if msg.GetBookingID() != "42" {
			t.Errorf("expected booking id header 42, got %s", msg.GetBookingID())
		}
		if msg.GetEventID() == "" {
			t.Error("expected an event id header")
		}

		var n Notification
		if err := msg.DecodeValue(&n); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if n.RecipientID != msg.Key {
			t.Errorf("payload recipient %s does not match key %s", n.RecipientID, msg.Key)
		}
	}
}
