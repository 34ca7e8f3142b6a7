package sanitizer

import (
	"strings"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  documents incomplete  ",
			want:  "documents incomplete",
		},
		{
			name:  "multiple spaces between words",
			input: "documents    incomplete",
			want:  "documents incomplete",
		},
		{
			name:  "tabs and newlines",
			input: "documents\t\nincomplete",
			want:  "documents incomplete",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " wrong date & time™ ",
			want:  "wrong date & time™",
		},
		{
			name:  "hebrew characters",
			input: " התאריך תפוס ",
			want:  "התאריך תפוס",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeReason(t *testing.T) {
	if got := NormalizeReason("  too   late  ", 500); got != "too late" {
		t.Errorf("expected normalized reason, got %q", got)
	}

	long := strings.Repeat("a", 600)
	if got := NormalizeReason(long, 500); len(got) != 500 {
		t.Errorf("expected reason capped at 500, got %d", len(got))
	}

	if got := NormalizeReason(long, 0); len(got) != 600 {
		t.Errorf("expected no cap with maxLen 0, got %d", len(got))
	}
}

func TestNormalizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "form.pdf", "form.pdf"},
		{"strips path separators", "../../etc/passwd", "....etcpasswd"},
		{"strips backslashes", `C:\temp\form.pdf`, "C:tempform.pdf"},
		{"strips control characters", "form\x00\x1b.pdf", "form.pdf"},
		{"collapses whitespace", "  my   form.pdf ", "my form.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFileName(tt.input); got != tt.want {
				t.Errorf("NormalizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
