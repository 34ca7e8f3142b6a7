package notify

import (
	"context"
	"slotgate/pkg/logger"
	"slotgate/pkg/model"

	"github.com/google/uuid"
)

// Messenger is the boundary to whatever transport actually reaches people.
// Prompts are synchronous because the returned handle is needed later to
// retract the prompt once some approver has decided.
type Messenger interface {
	SendPrompt(ctx context.Context, approverID string, booking *model.Booking) (handle string, err error)
	RetractPrompt(ctx context.Context, approverID string, handle string) error
	Deliver(ctx context.Context, notification Notification) error
}

// LogMessenger writes everything to the log. It is the default transport for
// deployments that have not wired a real one yet.
type LogMessenger struct {
	log *logger.Logger
}

func NewLogMessenger(log *logger.Logger) *LogMessenger {
	return &LogMessenger{log: log}
}

func (m *LogMessenger) SendPrompt(ctx context.Context, approverID string, booking *model.Booking) (string, error) {
	handle := uuid.New().String()
	m.log.Info("Approval prompt sent",
		"approver_id", approverID,
		"booking_id", booking.ID,
		"requester", booking.RequesterName,
		"date", booking.Date,
		"prompt_handle", handle,
	)
	return handle, nil
}

func (m *LogMessenger) RetractPrompt(ctx context.Context, approverID string, handle string) error {
	m.log.Info("Approval prompt retracted",
		"approver_id", approverID,
		"prompt_handle", handle,
	)
	return nil
}

func (m *LogMessenger) Deliver(ctx context.Context, notification Notification) error {
	m.log.Info("Notification delivered",
		"recipient_id", notification.RecipientID,
		"kind", notification.Kind,
		"booking_id", notification.BookingID,
		"text", notification.Text,
	)
	return nil
}
