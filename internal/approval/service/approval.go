package service

import (
	"context"
	"errors"
	approvalerrors "slotgate/internal/approval/errors"
	approvalrepo "slotgate/internal/approval/repository"
	bookingserrors "slotgate/internal/bookings/errors"
	bookingsrepo "slotgate/internal/bookings/repository"
	"slotgate/internal/notify"
	"slotgate/internal/policy"
	"slotgate/pkg/config"
	apperrors "slotgate/pkg/errors"
	"slotgate/pkg/model"
	"slotgate/pkg/sanitizer"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Outcome tells the acting approver what their input did. Losing a race is
// an outcome, not an error.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeAlreadyDecided  Outcome = "already_decided"
	OutcomeAwaitingReason  Outcome = "awaiting_reason"
	OutcomeNoPendingReason Outcome = "no_pending_reason"
)

const fullDateReason = "Selected date is fully booked"

type DecideResult struct {
	Outcome Outcome        `json:"outcome"`
	Booking *model.Booking `json:"booking,omitempty"`
}

type ApprovalService interface {
	// PromptApprovers sends one approval prompt per configured approver for
	// a freshly created booking and records the handles for retraction.
	PromptApprovers(ctx context.Context, booking *model.Booking) error

	Decide(ctx context.Context, approverID string, bookingID int64, action string) (*DecideResult, error)
	SubmitReason(ctx context.Context, approverID string, reason string) (*DecideResult, error)
	ListPending(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
}

type approvalService struct {
	repo        bookingsrepo.BookingRepository
	lockRepo    bookingsrepo.DateLockRepository
	promptRepo  approvalrepo.PromptRepository
	pendingRepo approvalrepo.PendingRejectionRepository
	messenger   notify.Messenger
	fanout      *notify.Fanout
	assignPol   *policy.Policy
	cfg         *config.Config
}

func NewApprovalService(
	repo bookingsrepo.BookingRepository,
	lockRepo bookingsrepo.DateLockRepository,
	promptRepo approvalrepo.PromptRepository,
	pendingRepo approvalrepo.PendingRejectionRepository,
	messenger notify.Messenger,
	fanout *notify.Fanout,
	assignPol *policy.Policy,
	cfg *config.Config,
) ApprovalService {
	return &approvalService{
		repo:        repo,
		lockRepo:    lockRepo,
		promptRepo:  promptRepo,
		pendingRepo: pendingRepo,
		messenger:   messenger,
		fanout:      fanout,
		assignPol:   assignPol,
		cfg:         cfg,
	}
}

func (s *approvalService) PromptApprovers(ctx context.Context, booking *model.Booking) error {
	prompts := make([]model.ApprovalPrompt, 0, len(s.cfg.ApproverIDs))
	for _, approverID := range s.cfg.ApproverIDs {
		handle, err := s.messenger.SendPrompt(ctx, approverID, booking)
		if err != nil {
			s.cfg.Log.Warn("Failed to send approval prompt",
				"approver_id", approverID,
				"booking_id", booking.ID,
				"error", err,
			)
			continue
		}
		prompts = append(prompts, model.ApprovalPrompt{
			BookingID:    booking.ID,
			ApproverID:   approverID,
			PromptHandle: handle,
		})
	}

	if err := s.promptRepo.Record(ctx, prompts); err != nil {
		return apperrors.StoreFailure("Failed to record approval prompts", err)
	}

	s.cfg.Log.Info("Approval prompts sent",
		"booking_id", booking.ID,
		"prompts", len(prompts),
	)
	return nil
}

func (s *approvalService) Decide(ctx context.Context, approverID string, bookingID int64, action string) (*DecideResult, error) {
	if !s.cfg.IsApprover(approverID) {
		return nil, apperrors.InvalidInput("Actor is not a configured approver")
	}
	if action != ActionApprove && action != ActionReject {
		return nil, apperrors.InvalidInput("Action must be 'approve' or 'reject'")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		return nil, apperrors.StoreFailure("Failed to load booking", err)
	}

	// A repeated decision on a settled booking is a no-op, never an error.
	if model.Terminal(booking.Status) {
		return &DecideResult{Outcome: OutcomeAlreadyDecided, Booking: booking}, nil
	}

	if action == ActionReject {
		return s.beginRejection(ctx, approverID, booking)
	}
	return s.approve(ctx, approverID, booking)
}

// approve re-checks capacity under the per-date lock before committing. The
// lock serializes concurrent approvals for the same date; the conditional
// transition serializes against any other decision for the same booking.
func (s *approvalService) approve(ctx context.Context, approverID string, booking *model.Booking) (*DecideResult, error) {
	date := booking.Date
	assignedNow := false

	if date == "" {
		if !s.cfg.AssignDateOnApproval {
			return nil, apperrors.Internal("Booking has no date and date assignment on approval is disabled", nil)
		}
		var err error
		date, err = s.assignPol.EarliestOpenDay(ctx, time.Now(), s.dayFull)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeCalendarExhausted) {
				s.cfg.Log.Error("No open day available for approval", "booking_id", booking.ID)
				return nil, err
			}
			return nil, apperrors.StoreFailure("Failed to scan for an open day", err)
		}
		assignedNow = true
	}

	if err := s.lockRepo.Acquire(ctx, date); err != nil {
		if errors.Is(err, bookingserrors.ErrDayLocked) {
			return nil, apperrors.Conflict("Another decision for this date is in progress, retry shortly")
		}
		return nil, apperrors.StoreFailure("Failed to acquire date lock", err)
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, date); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release date lock", "date", date, "error", releaseErr)
		}
	}()

	count, err := s.repo.CountApprovedForDate(ctx, date)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to count approved bookings", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	if count >= int64(s.cfg.PerDayCapacity) {
		set := bson.M{
			"decided_by":    approverID,
			"reject_reason": fullDateReason,
			"decided_at":    now,
		}
		if err := s.transition(ctx, booking, model.StatusRejected, set); err != nil {
			return s.transitionOutcome(ctx, booking.ID, err)
		}
		booking.Status = model.StatusRejected
		booking.DecidedBy = approverID
		booking.RejectReason = fullDateReason
		booking.DecidedAt = &now

		s.settle(ctx, booking, notify.EventAutoRejectedFull)
		s.cfg.Log.Info("Booking auto-rejected, date full",
			"booking_id", booking.ID,
			"date", date,
			"approver_id", approverID,
		)
		return &DecideResult{Outcome: OutcomeApplied, Booking: booking}, nil
	}

	set := bson.M{
		"decided_by": approverID,
		"decided_at": now,
	}
	if assignedNow {
		set["date"] = date
	}
	if err := s.transition(ctx, booking, model.StatusApproved, set); err != nil {
		return s.transitionOutcome(ctx, booking.ID, err)
	}
	booking.Status = model.StatusApproved
	booking.DecidedBy = approverID
	booking.Date = date
	booking.DecidedAt = &now

	s.settle(ctx, booking, notify.EventApproved)
	s.cfg.Log.Info("Booking approved",
		"booking_id", booking.ID,
		"date", date,
		"approver_id", approverID,
	)
	return &DecideResult{Outcome: OutcomeApplied, Booking: booking}, nil
}

// beginRejection leaves the booking PENDING and asks the approver for a
// free-text reason. Prompts come down immediately so no other approver
// wastes a decision on a booking that is about to be rejected.
func (s *approvalService) beginRejection(ctx context.Context, approverID string, booking *model.Booking) (*DecideResult, error) {
	pending := &model.PendingRejection{
		ApproverID: approverID,
		BookingID:  booking.ID,
	}
	if err := s.pendingRepo.Put(ctx, pending); err != nil {
		return nil, apperrors.StoreFailure("Failed to record pending rejection", err)
	}

	s.retractPrompts(ctx, booking.ID)

	if err := s.messenger.Deliver(ctx, notify.Notification{
		RecipientID: approverID,
		Kind:        notify.EventReasonRequested,
		BookingID:   booking.ID,
		Text:        "Please reply with the rejection reason.",
	}); err != nil {
		s.cfg.Log.Warn("Failed to request rejection reason",
			"approver_id", approverID,
			"booking_id", booking.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Rejection started, awaiting reason",
		"booking_id", booking.ID,
		"approver_id", approverID,
	)
	return &DecideResult{Outcome: OutcomeAwaitingReason, Booking: booking}, nil
}

func (s *approvalService) SubmitReason(ctx context.Context, approverID string, reason string) (*DecideResult, error) {
	if !s.cfg.IsApprover(approverID) {
		return nil, apperrors.InvalidInput("Actor is not a configured approver")
	}

	pending, err := s.pendingRepo.Take(ctx, approverID)
	if err != nil {
		if errors.Is(err, approvalerrors.ErrNoPendingReason) {
			return &DecideResult{Outcome: OutcomeNoPendingReason}, nil
		}
		return nil, apperrors.StoreFailure("Failed to load pending rejection", err)
	}

	reason = sanitizer.NormalizeReason(reason, s.cfg.MaxReasonLength)
	if reason == "" {
		// Entry already consumed; put it back so the approver can retry.
		if putErr := s.pendingRepo.Put(ctx, pending); putErr != nil {
			return nil, apperrors.StoreFailure("Failed to restore pending rejection", putErr)
		}
		return nil, apperrors.Validation("Rejection reason cannot be empty", nil)
	}

	booking, err := s.repo.FindByID(ctx, pending.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", pending.BookingID)
		}
		return nil, apperrors.StoreFailure("Failed to load booking", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	set := bson.M{
		"decided_by":    approverID,
		"reject_reason": reason,
		"decided_at":    now,
	}
	if err := s.transition(ctx, booking, model.StatusRejected, set); err != nil {
		return s.transitionOutcome(ctx, booking.ID, err)
	}
	booking.Status = model.StatusRejected
	booking.DecidedBy = approverID
	booking.RejectReason = reason
	booking.DecidedAt = &now

	s.settle(ctx, booking, notify.EventRejected)
	s.cfg.Log.Info("Booking rejected",
		"booking_id", booking.ID,
		"approver_id", approverID,
	)
	return &DecideResult{Outcome: OutcomeApplied, Booking: booking}, nil
}

func (s *approvalService) ListPending(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	bookings, err := s.repo.FindPending(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to list pending bookings", err)
	}
	return bookings, nil
}

func (s *approvalService) transition(ctx context.Context, booking *model.Booking, to string, set bson.M) error {
	return s.repo.TransitionStatus(ctx, booking.ID, model.StatusPending, to, set)
}

// transitionOutcome maps a lost conditional update to its caller-facing
// result. Anything else is a real failure.
func (s *approvalService) transitionOutcome(ctx context.Context, bookingID int64, err error) (*DecideResult, error) {
	if errors.Is(err, bookingserrors.ErrAlreadyDecided) {
		booking, findErr := s.repo.FindByID(ctx, bookingID)
		if findErr != nil {
			return &DecideResult{Outcome: OutcomeAlreadyDecided}, nil
		}
		return &DecideResult{Outcome: OutcomeAlreadyDecided, Booking: booking}, nil
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return nil, apperrors.NotFoundWithID("Booking", bookingID)
	}
	return nil, apperrors.StoreFailure("Failed to commit decision", err)
}

// settle runs the post-commit effects of a decision: prompt retraction,
// pending-rejection cleanup, and notification fan-out. All best-effort; the
// decision itself is already durable.
func (s *approvalService) settle(ctx context.Context, booking *model.Booking, event string) {
	s.retractPrompts(ctx, booking.ID)

	if err := s.pendingRepo.DeleteByBooking(ctx, booking.ID); err != nil {
		s.cfg.Log.Warn("Failed to clear pending rejections",
			"booking_id", booking.ID,
			"error", err,
		)
	}

	s.fanout.Publish(ctx, event, booking)
}

func (s *approvalService) retractPrompts(ctx context.Context, bookingID int64) {
	prompts, err := s.promptRepo.FindByBooking(ctx, bookingID)
	if err != nil {
		s.cfg.Log.Warn("Failed to load prompts for retraction",
			"booking_id", bookingID,
			"error", err,
		)
		return
	}

	for _, prompt := range prompts {
		if err := s.messenger.RetractPrompt(ctx, prompt.ApproverID, prompt.PromptHandle); err != nil {
			s.cfg.Log.Warn("Failed to retract approval prompt",
				"booking_id", bookingID,
				"approver_id", prompt.ApproverID,
				"error", err,
			)
		}
	}

	if err := s.promptRepo.DeleteByBooking(ctx, bookingID); err != nil {
		s.cfg.Log.Warn("Failed to clear prompt ledger",
			"booking_id", bookingID,
			"error", err,
		)
	}
}

func (s *approvalService) dayFull(ctx context.Context, day string) (bool, error) {
	count, err := s.repo.CountApprovedForDate(ctx, day)
	if err != nil {
		return false, err
	}
	return count >= int64(s.cfg.PerDayCapacity), nil
}
