package service

import (
	"context"
	bookingserrors "slotgate/internal/bookings/errors"
	"slotgate/internal/bookings/validator"
	intakeerrors "slotgate/internal/intake/errors"
	"slotgate/internal/notify"
	"slotgate/internal/policy"
	"slotgate/pkg/config"
	mongotx "slotgate/pkg/db/mongo"
	"slotgate/pkg/kafka"
	"slotgate/pkg/logger"
	"slotgate/pkg/model"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ────────────────────────────────────────────────
// In-memory stores
// ────────────────────────────────────────────────

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.IntakeSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.IntakeSession)}
}

func (m *memSessionRepo) Put(ctx context.Context, session *model.IntakeSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *session
	m.sessions[session.RequesterID] = &clone
	return nil
}

func (m *memSessionRepo) Find(ctx context.Context, requesterID string) (*model.IntakeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[requesterID]
	if !ok {
		return nil, intakeerrors.ErrNoSession
	}
	clone := *s
	return &clone, nil
}

func (m *memSessionRepo) Delete(ctx context.Context, requesterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, requesterID)
	return nil
}

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[int64]*model.Booking
	nextID   int64
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[int64]*model.Booking)}
}

func (m *memBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = m.nextID
	booking.Status = model.StatusPending
	booking.CreatedAt = time.Now()
	clone := *booking
	m.bookings[booking.ID] = &clone
	return nil
}

func (m *memBookingRepo) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (m *memBookingRepo) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.RequesterID == requesterID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memBookingRepo) FindPending(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *memBookingRepo) CountApprovedForDate(ctx context.Context, date string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, b := range m.bookings {
		if b.Date == date && b.Status == model.StatusApproved {
			count++
		}
	}
	return count, nil
}

func (m *memBookingRepo) HasActiveForRequesterAndDate(ctx context.Context, requesterID string, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.RequesterID == requesterID && b.Date == date && b.Status != model.StatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBookingRepo) TransitionStatus(ctx context.Context, id int64, from string, to string, set bson.M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if b.Status != from {
		return bookingserrors.ErrAlreadyDecided
	}
	b.Status = to
	return nil
}

func (m *memBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type recordingPromptSender struct {
	mu       sync.Mutex
	prompted []int64
}

func (p *recordingPromptSender) PromptApprovers(ctx context.Context, booking *model.Booking) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompted = append(p.prompted, booking.ID)
	return nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, messages []kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, messages...)
	return nil
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

type fixture struct {
	svc       IntakeService
	sessions  *memSessionRepo
	repo      *memBookingRepo
	prompts   *recordingPromptSender
	publisher *recordingPublisher
	cfg       *config.Config
}

func newFixture(t *testing.T, mutate func(cfg *config.Config)) *fixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:              log,
		ApproverIDs:      []string{"admin-1"},
		PerDayCapacity:   2,
		OfferedDateCount: 5,
	}
	if mutate != nil {
		mutate(cfg)
	}

	sessions := newMemSessionRepo()
	repo := newMemBookingRepo()
	prompts := &recordingPromptSender{}
	publisher := &recordingPublisher{}
	fanout := notify.NewFanout(publisher, cfg.ApproverIDs, "test", log)
	intakePol := policy.New([]time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	}, 2, 3650)

	return &fixture{
		svc:       NewIntakeService(sessions, repo, validator.NewBookingValidator(log), prompts, fanout, intakePol, cfg),
		sessions:  sessions,
		repo:      repo,
		prompts:   prompts,
		publisher: publisher,
		cfg:       cfg,
	}
}

func file(id string) *model.BookingFile {
	return &model.BookingFile{FileID: id, FileType: "document", FileName: id + ".pdf"}
}

// runToDateChoice starts a session and submits the file count, returning the
// offered dates.
func (f *fixture) runToDateChoice(t *testing.T, requesterID string, count int) []string {
	t.Helper()
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, requesterID, "Requester"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	result, err := f.svc.Submit(ctx, requesterID, Input{Text: strconv.Itoa(count)})
	if err != nil {
		t.Fatalf("file count submit failed: %v", err)
	}
	if result.Kind != ResultAdvanced {
		t.Fatalf("expected advanced after file count, got %s", result.Kind)
	}
	if len(result.OfferedDates) != f.cfg.OfferedDateCount {
		t.Fatalf("expected %d offered dates, got %d", f.cfg.OfferedDateCount, len(result.OfferedDates))
	}
	return result.OfferedDates
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestFullIntakeDialogue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	dates := f.runToDateChoice(t, "user-1", 2)

	result, err := f.svc.Submit(ctx, "user-1", Input{Text: dates[0]})
	if err != nil {
		t.Fatalf("date submit failed: %v", err)
	}
	if result.Kind != ResultAdvanced {
		t.Fatalf("expected advanced after date choice, got %s", result.Kind)
	}

	result, err = f.svc.Submit(ctx, "user-1", Input{File: file("f-1")})
	if err != nil {
		t.Fatalf("first file failed: %v", err)
	}
	if result.Kind != ResultAdvanced {
		t.Fatalf("expected advanced after first file, got %s", result.Kind)
	}

	result, err = f.svc.Submit(ctx, "user-1", Input{File: file("f-2")})
	if err != nil {
		t.Fatalf("second file failed: %v", err)
	}
	if result.Kind != ResultCompleted {
		t.Fatalf("expected completed after final file, got %s", result.Kind)
	}
	if result.BookingID == 0 {
		t.Fatal("expected a booking id")
	}

	booking, err := f.repo.FindByID(ctx, result.BookingID)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if booking.Status != model.StatusPending {
		t.Errorf("expected PENDING, got %s", booking.Status)
	}
	if booking.Date != dates[0] {
		t.Errorf("expected date %s, got %s", dates[0], booking.Date)
	}
	if len(booking.Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(booking.Files))
	}
	if booking.Files[0].FileID != "f-1" || booking.Files[1].FileID != "f-2" {
		t.Errorf("file order not preserved: %+v", booking.Files)
	}

	// Session gone, approvers prompted, requester notified.
	if _, err := f.sessions.Find(ctx, "user-1"); err == nil {
		t.Error("expected session to be destroyed on completion")
	}
	if len(f.prompts.prompted) != 1 || f.prompts.prompted[0] != result.BookingID {
		t.Errorf("expected approvers prompted for booking %d, got %v", result.BookingID, f.prompts.prompted)
	}
	if len(f.publisher.messages) == 0 {
		t.Error("expected a created notification")
	}
}

func TestFileCountRePrompts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, "user-1", "Requester"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for _, text := range []string{"zero", "0", "-3", "1.5", ""} {
		result, err := f.svc.Submit(ctx, "user-1", Input{Text: text})
		if err != nil {
			t.Fatalf("submit %q failed: %v", text, err)
		}
		if result.Kind != ResultRePrompt {
			t.Errorf("input %q: expected re_prompt, got %s", text, result.Kind)
		}
	}

	// Session still usable afterwards.
	result, err := f.svc.Submit(ctx, "user-1", Input{Text: "3"})
	if err != nil || result.Kind != ResultAdvanced {
		t.Fatalf("valid count after re-prompts: got %v, err %v", result, err)
	}
}

func TestDateChoiceRePromptOnUnknownDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.runToDateChoice(t, "user-1", 1)

	result, err := f.svc.Submit(ctx, "user-1", Input{Text: "2031-01-01"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Kind != ResultRePrompt {
		t.Errorf("expected re_prompt for unoffered date, got %s", result.Kind)
	}
	if len(result.OfferedDates) == 0 {
		t.Error("expected re-prompt to repeat the offered dates")
	}
}

func TestDuplicateDateTerminates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	dates := f.runToDateChoice(t, "user-1", 1)

	// An active booking for the chosen date already exists.
	existing := &model.Booking{
		RequesterID: "user-1",
		Date:        dates[0],
		Files:       []model.BookingFile{{FileID: "old", FileType: "document"}},
	}
	if err := f.repo.Create(ctx, existing); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := f.svc.Submit(ctx, "user-1", Input{Text: dates[0]})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Kind != ResultTerminated {
		t.Fatalf("expected terminated, got %s", result.Kind)
	}

	// Session destroyed, no new booking created.
	if _, err := f.sessions.Find(ctx, "user-1"); err == nil {
		t.Error("expected session destroyed on termination")
	}
	bookings, _ := f.repo.FindByRequester(ctx, "user-1", 100, 0)
	if len(bookings) != 1 {
		t.Errorf("expected only the pre-existing booking, got %d", len(bookings))
	}
}

func TestFullDateTerminates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	dates := f.runToDateChoice(t, "user-1", 1)

	// Fill the chosen date to capacity with approved bookings.
	for i := 0; i < f.cfg.PerDayCapacity; i++ {
		b := &model.Booking{
			RequesterID: "other",
			Date:        dates[0],
			Files:       []model.BookingFile{{FileID: "x", FileType: "document"}},
		}
		if err := f.repo.Create(ctx, b); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		if err := f.repo.TransitionStatus(ctx, b.ID, model.StatusPending, model.StatusApproved, nil); err != nil {
			t.Fatalf("seed approve failed: %v", err)
		}
	}

	result, err := f.svc.Submit(ctx, "user-1", Input{Text: dates[0]})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Kind != ResultTerminated {
		t.Errorf("expected terminated for a full date, got %s", result.Kind)
	}
}

func TestAttachmentStateRePromptsOnText(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	dates := f.runToDateChoice(t, "user-1", 2)
	if _, err := f.svc.Submit(ctx, "user-1", Input{Text: dates[0]}); err != nil {
		t.Fatalf("date submit failed: %v", err)
	}
	if _, err := f.svc.Submit(ctx, "user-1", Input{File: file("f-1")}); err != nil {
		t.Fatalf("file submit failed: %v", err)
	}

	result, err := f.svc.Submit(ctx, "user-1", Input{Text: "is this enough?"})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Kind != ResultRePrompt {
		t.Fatalf("expected re_prompt for text in attachment state, got %s", result.Kind)
	}

	// Nothing was consumed; one more file still completes.
	result, err = f.svc.Submit(ctx, "user-1", Input{File: file("f-2")})
	if err != nil || result.Kind != ResultCompleted {
		t.Fatalf("expected completion, got %v, err %v", result, err)
	}
}

func TestCancelFromEveryState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	setups := map[string]func(requesterID string){
		"collecting metadata": func(requesterID string) {
			if _, err := f.svc.Start(ctx, requesterID, "R"); err != nil {
				t.Fatalf("start failed: %v", err)
			}
		},
		"choosing date": func(requesterID string) {
			f.runToDateChoice(t, requesterID, 1)
		},
		"collecting attachments": func(requesterID string) {
			dates := f.runToDateChoice(t, requesterID, 2)
			if _, err := f.svc.Submit(ctx, requesterID, Input{Text: dates[0]}); err != nil {
				t.Fatalf("date submit failed: %v", err)
			}
		},
	}

	i := 0
	for name, setup := range setups {
		i++
		requesterID := "user-" + strconv.Itoa(i)
		t.Run(name, func(t *testing.T) {
			setup(requesterID)

			result, err := f.svc.Submit(ctx, requesterID, Input{Cancel: true})
			if err != nil {
				t.Fatalf("cancel failed: %v", err)
			}
			if result.Kind != ResultCancelled {
				t.Fatalf("expected cancelled, got %s", result.Kind)
			}
			if _, err := f.sessions.Find(ctx, requesterID); err == nil {
				t.Error("expected session destroyed on cancel")
			}
			bookings, _ := f.repo.FindByRequester(ctx, requesterID, 100, 0)
			if len(bookings) != 0 {
				t.Errorf("cancel created %d bookings", len(bookings))
			}
		})
	}
}

func TestSubmitWithoutSession(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.Submit(context.Background(), "user-1", Input{Text: "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != ResultRePrompt {
		t.Errorf("expected re_prompt with no session, got %s", result.Kind)
	}
}

func TestStartReplacesExistingSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.runToDateChoice(t, "user-1", 3)
	if _, err := f.svc.Start(ctx, "user-1", "Requester"); err != nil {
		t.Fatalf("restart failed: %v", err)
	}

	// Back at the first step: a date is not valid input, a count is.
	result, err := f.svc.Submit(ctx, "user-1", Input{Text: "2"})
	if err != nil || result.Kind != ResultAdvanced {
		t.Fatalf("expected fresh session to accept a count, got %v, err %v", result, err)
	}
}

func TestDeferredDateSkipsDateStep(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) {
		cfg.AssignDateOnApproval = true
	})
	ctx := context.Background()

	if _, err := f.svc.Start(ctx, "user-1", "Requester"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	result, err := f.svc.Submit(ctx, "user-1", Input{Text: "1"})
	if err != nil {
		t.Fatalf("count submit failed: %v", err)
	}
	if result.Kind != ResultAdvanced || len(result.OfferedDates) != 0 {
		t.Fatalf("expected to go straight to attachments, got %+v", result)
	}

	result, err = f.svc.Submit(ctx, "user-1", Input{File: file("f-1")})
	if err != nil || result.Kind != ResultCompleted {
		t.Fatalf("expected completion, got %v, err %v", result, err)
	}

	booking, _ := f.repo.FindByID(ctx, result.BookingID)
	if booking.Date != "" {
		t.Errorf("expected no date before approval, got %s", booking.Date)
	}
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b := &model.Booking{
			RequesterID: "user-1",
			Date:        "2026-09-0" + strconv.Itoa(i+6),
			Files:       []model.BookingFile{{FileID: "f", FileType: "document"}},
		}
		if err := f.repo.Create(ctx, b); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	summaries, err := f.svc.ListBookings(ctx, "user-1", 100, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}
	for _, s := range summaries {
		if s.ID == 0 || s.Status != model.StatusPending {
			t.Errorf("bad summary: %+v", s)
		}
	}
}
