package moderation_test

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/moderation"
)

func TestShouldEscalate(t *testing.T) {
	tests := []struct {
		active int64
		want   bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{4, true},
	}
	for _, tt := range tests {
		if got := moderation.ShouldEscalate(tt.active); got != tt.want {
			t.Errorf("ShouldEscalate(%d): expected %v, got %v", tt.active, tt.want, got)
		}
	}
}

func TestEscalationConsequence(t *testing.T) {
	if moderation.Escalation.Type != models.SanctionTemporarySuspension {
		t.Errorf("expected temporary suspension, got %s", moderation.Escalation.Type)
	}
	if moderation.Escalation.DurationDays != 2 {
		t.Errorf("expected 2 days, got %d", moderation.Escalation.DurationDays)
	}
	if moderation.Escalation.Reason != "automatic escalation: 3 accumulated warnings" {
		t.Errorf("unexpected reason %q", moderation.Escalation.Reason)
	}
}

func TestSuspensionEndIgnoresCallerZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	start := time.Date(2024, 3, 30, 23, 15, 0, 0, tokyo)

	end := moderation.SuspensionEnd(start, 2)

	if end.Location() != time.UTC {
		t.Errorf("expected UTC, got %s", end.Location())
	}
	if got := end.Sub(start); got != 48*time.Hour {
		t.Errorf("expected 48h, got %s", got)
	}
}

func TestSanctionMessage(t *testing.T) {
	tests := []struct {
		typ  models.SanctionType
		want string
	}{
		{models.SanctionWarning, "You have received a warning. Reason: spam"},
		{models.SanctionTemporarySuspension, "Your account has been temporarily suspended. Reason: spam"},
		{models.SanctionPermanentSuspension, "Your account has been permanently suspended. Reason: spam"},
	}
	for _, tt := range tests {
		if got := moderation.SanctionMessage(tt.typ, "spam"); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.typ, tt.want, got)
		}
	}

	want := "Your report has been validated and action was taken. You have earned 25 reputation points."
	if moderation.ReportValidatedMessage != want {
		t.Errorf("expected %q, got %q", want, moderation.ReportValidatedMessage)
	}
}
