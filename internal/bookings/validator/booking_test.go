package validator

import (
	"slotgate/pkg/logger"
	"slotgate/pkg/model"
	"testing"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validBooking() *model.Booking {
	return &model.Booking{
		ID:          1,
		RequesterID: "user-1",
		Date:        "2026-09-06",
		Status:      model.StatusPending,
		Files: []model.BookingFile{
			{FileID: "f-1", FileType: "document", FileName: "form.pdf"},
		},
	}
}

func TestValidateBooking(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantError bool
	}{
		{
			name:      "valid pending booking",
			mutate:    func(b *model.Booking) {},
			wantError: false,
		},
		{
			name:      "valid without date when assignment is deferred",
			mutate:    func(b *model.Booking) { b.Date = "" },
			wantError: false,
		},
		{
			name:      "missing requester",
			mutate:    func(b *model.Booking) { b.RequesterID = "" },
			wantError: true,
		},
		{
			name:      "no files",
			mutate:    func(b *model.Booking) { b.Files = nil },
			wantError: true,
		},
		{
			name:      "unknown file type",
			mutate:    func(b *model.Booking) { b.Files[0].FileType = "video" },
			wantError: true,
		},
		{
			name:      "non-canonical date",
			mutate:    func(b *model.Booking) { b.Date = "06/09/2026" },
			wantError: true,
		},
		{
			name:      "date with time component",
			mutate:    func(b *model.Booking) { b.Date = "2026-09-06T00:00:00Z" },
			wantError: true,
		},
		{
			name:      "unknown status",
			mutate:    func(b *model.Booking) { b.Status = "MAYBE" },
			wantError: true,
		},
		{
			name: "approved without deciding approver",
			mutate: func(b *model.Booking) {
				b.Status = model.StatusApproved
			},
			wantError: true,
		},
		{
			name: "approved with deciding approver",
			mutate: func(b *model.Booking) {
				b.Status = model.StatusApproved
				b.DecidedBy = "approver-1"
			},
			wantError: false,
		},
		{
			name: "reason on a non-rejected booking",
			mutate: func(b *model.Booking) {
				b.RejectReason = "too late"
			},
			wantError: true,
		},
		{
			name: "rejected with reason",
			mutate: func(b *model.Booking) {
				b.Status = model.StatusRejected
				b.DecidedBy = "approver-1"
				b.RejectReason = "too late"
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.mutate(b)

			err := v.Validate(b)
			if tt.wantError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateFile(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name      string
		file      model.BookingFile
		wantError bool
	}{
		{"document", model.BookingFile{FileID: "f-1", FileType: "document"}, false},
		{"photo with name", model.BookingFile{FileID: "f-2", FileType: "photo", FileName: "scan.jpg"}, false},
		{"missing id", model.BookingFile{FileType: "document"}, true},
		{"unsupported type", model.BookingFile{FileID: "f-3", FileType: "audio"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateFile(&tt.file)
			if tt.wantError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
