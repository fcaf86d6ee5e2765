package moderation

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
)

const (
	// WarningThreshold is the number of concurrently active warnings that
	// triggers escalation.
	WarningThreshold = 3

	ReportRewardPoints = 25

	ReportRateLimit  = 3
	ReportRateWindow = 12 * time.Hour
)

// Escalation is the sanction issued when accumulated warnings are cashed in.
var Escalation = struct {
	Type         models.SanctionType
	Reason       string
	DurationDays int
}{
	Type:         models.SanctionTemporarySuspension,
	Reason:       "automatic escalation: 3 accumulated warnings",
	DurationDays: 2,
}

// ShouldEscalate decides escalation from the active warning count, including
// the warning just issued.
func ShouldEscalate(activeWarnings int64) bool {
	return activeWarnings >= WarningThreshold
}

// SuspensionEnd returns start plus whole days, in UTC.
func SuspensionEnd(start time.Time, days int) time.Time {
	return start.UTC().Add(time.Duration(days) * 24 * time.Hour)
}
