package service

import (
	"context"
	"errors"
	"fmt"
	bookingsrepo "slotgate/internal/bookings/repository"
	"slotgate/internal/bookings/validator"
	intakeerrors "slotgate/internal/intake/errors"
	intakerepo "slotgate/internal/intake/repository"
	"slotgate/internal/notify"
	"slotgate/internal/policy"
	"slotgate/pkg/config"
	apperrors "slotgate/pkg/errors"
	"slotgate/pkg/model"
	"slotgate/pkg/sanitizer"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// ResultKind classifies what one submitted input did to the dialogue.
type ResultKind string

const (
	// ResultRePrompt: input not usable in the current state; the session is
	// untouched and the requester is asked again.
	ResultRePrompt ResultKind = "re_prompt"
	// ResultAdvanced: input accepted, dialogue moved on.
	ResultAdvanced ResultKind = "advanced"
	// ResultCompleted: dialogue finished, a PENDING booking exists.
	ResultCompleted ResultKind = "completed"
	// ResultCancelled: requester backed out, session destroyed, no booking.
	ResultCancelled ResultKind = "cancelled"
	// ResultTerminated: the dialogue hit a dead end (full or duplicate
	// date) and was destroyed; the requester must start over.
	ResultTerminated ResultKind = "terminated"
)

// Input is one unit of requester input: free text, a file, or a cancel.
type Input struct {
	Text   string             `json:"text,omitempty"`
	File   *model.BookingFile `json:"file,omitempty"`
	Cancel bool               `json:"cancel,omitempty"`
}

type Result struct {
	Kind         ResultKind `json:"kind"`
	Prompt       string     `json:"prompt,omitempty"`
	OfferedDates []string   `json:"offered_dates,omitempty"`
	BookingID    int64      `json:"booking_id,omitempty"`
}

// PromptSender fans approval prompts out once a booking exists. Implemented
// by the approval service.
type PromptSender interface {
	PromptApprovers(ctx context.Context, booking *model.Booking) error
}

type IntakeService interface {
	Start(ctx context.Context, requesterID string, requesterName string) (*Result, error)
	Submit(ctx context.Context, requesterID string, input Input) (*Result, error)
	ListBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.BookingSummary, error)
}

type intakeService struct {
	sessions  intakerepo.SessionRepository
	bookings  bookingsrepo.BookingRepository
	validator *validator.BookingValidator
	prompts   PromptSender
	fanout    *notify.Fanout
	intakePol *policy.Policy
	cfg       *config.Config
}

func NewIntakeService(
	sessions intakerepo.SessionRepository,
	bookings bookingsrepo.BookingRepository,
	bookingValidator *validator.BookingValidator,
	prompts PromptSender,
	fanout *notify.Fanout,
	intakePol *policy.Policy,
	cfg *config.Config,
) IntakeService {
	return &intakeService{
		sessions:  sessions,
		bookings:  bookings,
		validator: bookingValidator,
		prompts:   prompts,
		fanout:    fanout,
		intakePol: intakePol,
		cfg:       cfg,
	}
}

// Start opens a fresh dialogue, replacing any in-progress one for the same
// requester.
func (s *intakeService) Start(ctx context.Context, requesterID string, requesterName string) (*Result, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	session := &model.IntakeSession{
		RequesterID:   requesterID,
		RequesterName: sanitizer.TrimAndNormalize(requesterName),
		State:         model.StateCollectingMetadata,
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, apperrors.StoreFailure("Failed to start intake session", err)
	}

	s.cfg.Log.Info("Intake session started", "requester_id", requesterID)
	return &Result{
		Kind:   ResultAdvanced,
		Prompt: "How many files will you attach to this request?",
	}, nil
}

func (s *intakeService) Submit(ctx context.Context, requesterID string, input Input) (*Result, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	session, err := s.sessions.Find(ctx, requesterID)
	if err != nil {
		if errors.Is(err, intakeerrors.ErrNoSession) {
			return &Result{
				Kind:   ResultRePrompt,
				Prompt: "No request in progress. Start a new booking request first.",
			}, nil
		}
		return nil, apperrors.StoreFailure("Failed to load intake session", err)
	}

	if input.Cancel {
		if err := s.sessions.Delete(ctx, requesterID); err != nil {
			return nil, apperrors.StoreFailure("Failed to cancel intake session", err)
		}
		s.cfg.Log.Info("Intake session cancelled", "requester_id", requesterID)
		return &Result{Kind: ResultCancelled, Prompt: "Request cancelled."}, nil
	}

	switch session.State {
	case model.StateCollectingMetadata:
		return s.handleFileCount(ctx, session, input)
	case model.StateChoosingDate:
		return s.handleDateChoice(ctx, session, input)
	case model.StateCollectingAttachments:
		return s.handleAttachment(ctx, session, input)
	}

	return nil, apperrors.Internal(fmt.Sprintf("Intake session in unknown state %q", session.State), nil)
}

func (s *intakeService) handleFileCount(ctx context.Context, session *model.IntakeSession, input Input) (*Result, error) {
	count, err := strconv.Atoi(strings.TrimSpace(input.Text))
	if err != nil || count < 1 {
		return &Result{
			Kind:   ResultRePrompt,
			Prompt: "Please send a whole number of files, at least 1.",
		}, nil
	}

	session.FileCount = count

	if s.cfg.AssignDateOnApproval {
		// Date step is skipped; an open day is picked when an approver
		// approves.
		session.State = model.StateCollectingAttachments
		if err := s.sessions.Put(ctx, session); err != nil {
			return nil, apperrors.StoreFailure("Failed to advance intake session", err)
		}
		return &Result{
			Kind:   ResultAdvanced,
			Prompt: fmt.Sprintf("Please send %d file(s).", count),
		}, nil
	}

	offered, err := s.intakePol.NextEligibleDays(time.Now(), s.cfg.OfferedDateCount)
	if err != nil {
		return nil, err
	}
	session.OfferedDates = offered
	session.State = model.StateChoosingDate
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, apperrors.StoreFailure("Failed to advance intake session", err)
	}

	return &Result{
		Kind:         ResultAdvanced,
		Prompt:       "Choose one of the offered dates.",
		OfferedDates: offered,
	}, nil
}

func (s *intakeService) handleDateChoice(ctx context.Context, session *model.IntakeSession, input Input) (*Result, error) {
	chosen := strings.TrimSpace(input.Text)
	if !contains(session.OfferedDates, chosen) {
		return &Result{
			Kind:         ResultRePrompt,
			Prompt:       "That is not one of the offered dates. Choose one of them.",
			OfferedDates: session.OfferedDates,
		}, nil
	}

	count, err := s.bookings.CountApprovedForDate(ctx, chosen)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to check date capacity", err)
	}
	if count >= int64(s.cfg.PerDayCapacity) {
		return s.terminate(ctx, session,
			fmt.Sprintf("%s is fully booked. Start a new request to pick another date.", chosen))
	}

	duplicate, err := s.bookings.HasActiveForRequesterAndDate(ctx, session.RequesterID, chosen)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to check for an existing booking", err)
	}
	if duplicate {
		return s.terminate(ctx, session,
			fmt.Sprintf("You already have a request for %s. Start a new request to pick another date.", chosen))
	}

	session.ChosenDate = chosen
	session.State = model.StateCollectingAttachments
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, apperrors.StoreFailure("Failed to advance intake session", err)
	}

	return &Result{
		Kind:   ResultAdvanced,
		Prompt: fmt.Sprintf("Date %s selected. Please send %d file(s).", chosen, session.FileCount),
	}, nil
}

func (s *intakeService) handleAttachment(ctx context.Context, session *model.IntakeSession, input Input) (*Result, error) {
	if input.File == nil {
		return &Result{
			Kind:   ResultRePrompt,
			Prompt: fmt.Sprintf("Please send a file. %d remaining.", session.Remaining()),
		}, nil
	}

	file := *input.File
	file.FileName = sanitizer.NormalizeFileName(file.FileName)
	if err := s.validator.ValidateFile(&file); err != nil {
		return &Result{
			Kind:   ResultRePrompt,
			Prompt: fmt.Sprintf("That file was not accepted (%v). %d remaining.", err, session.Remaining()),
		}, nil
	}

	session.Files = append(session.Files, file)
	if session.Remaining() > 0 {
		if err := s.sessions.Put(ctx, session); err != nil {
			return nil, apperrors.StoreFailure("Failed to record attachment", err)
		}
		return &Result{
			Kind:   ResultAdvanced,
			Prompt: fmt.Sprintf("Received. %d file(s) remaining.", session.Remaining()),
		}, nil
	}

	return s.complete(ctx, session)
}

// complete turns a finished session into a PENDING booking. The duplicate
// check reruns inside the transaction because another dialogue may have
// landed a booking for the same date since the date was chosen.
func (s *intakeService) complete(ctx context.Context, session *model.IntakeSession) (*Result, error) {
	booking := &model.Booking{
		RequesterID:   session.RequesterID,
		RequesterName: session.RequesterName,
		Date:          session.ChosenDate,
		Status:        model.StatusPending,
		Files:         session.Files,
	}
	if err := s.validator.Validate(booking); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	err := s.bookings.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if session.ChosenDate != "" {
			duplicate, err := s.bookings.HasActiveForRequesterAndDate(sessCtx, session.RequesterID, session.ChosenDate)
			if err != nil {
				return apperrors.StoreFailure("Failed to re-check for an existing booking", err)
			}
			if duplicate {
				return apperrors.Conflict("An active booking for this date already exists")
			}
		}
		if err := s.bookings.Create(sessCtx, booking); err != nil {
			return apperrors.StoreFailure("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return s.terminate(ctx, session,
				"A booking for this date already exists. Start a new request to pick another date.")
		}
		s.cfg.Log.Error("Failed to complete intake", "requester_id", session.RequesterID, "error", err)
		return nil, err
	}

	if err := s.sessions.Delete(ctx, session.RequesterID); err != nil {
		s.cfg.Log.Warn("Failed to delete completed intake session",
			"requester_id", session.RequesterID,
			"error", err,
		)
	}

	s.fanout.Publish(ctx, notify.EventCreated, booking)
	if err := s.prompts.PromptApprovers(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to prompt approvers",
			"booking_id", booking.ID,
			"error", err,
		)
	}

	s.cfg.Log.Info("Intake completed",
		"requester_id", session.RequesterID,
		"booking_id", booking.ID,
		"date", booking.Date,
		"files", len(booking.Files),
	)
	return &Result{
		Kind:      ResultCompleted,
		Prompt:    fmt.Sprintf("Request #%d submitted and awaiting approval.", booking.ID),
		BookingID: booking.ID,
	}, nil
}

func (s *intakeService) terminate(ctx context.Context, session *model.IntakeSession, prompt string) (*Result, error) {
	if err := s.sessions.Delete(ctx, session.RequesterID); err != nil {
		return nil, apperrors.StoreFailure("Failed to terminate intake session", err)
	}
	s.cfg.Log.Info("Intake session terminated",
		"requester_id", session.RequesterID,
		"state", session.State,
	)
	return &Result{Kind: ResultTerminated, Prompt: prompt}, nil
}

func (s *intakeService) ListBookings(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.BookingSummary, error) {
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID cannot be empty")
	}

	bookings, err := s.bookings.FindByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, apperrors.StoreFailure("Failed to list bookings", err)
	}

	summaries := make([]*model.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		summaries = append(summaries, &model.BookingSummary{
			ID:     b.ID,
			Date:   b.Date,
			Status: b.Status,
		})
	}
	return summaries, nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
