package moderation

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
)

const (
	NotifyReportValidated = "report_validated"
	NotifySanctionRevoked = "sanction_revoked"
)

var (
	ReportValidatedMessage = fmt.Sprintf("Your report has been validated and action was taken. You have earned %d reputation points.", ReportRewardPoints)
	SanctionRevokedMessage = "Your sanction has been revoked."
)

// SanctionMessage renders the notification body for a new sanction.
func SanctionMessage(t models.SanctionType, reason string) string {
	switch t {
	case models.SanctionWarning:
		return "You have received a warning. Reason: " + reason
	case models.SanctionTemporarySuspension:
		return "Your account has been temporarily suspended. Reason: " + reason
	case models.SanctionPermanentSuspension:
		return "Your account has been permanently suspended. Reason: " + reason
	}
	return "A moderation action was applied to your account. Reason: " + reason
}

// SanctionNotificationType tags notifications about a new sanction.
func SanctionNotificationType(t models.SanctionType) string {
	return "sanction_" + string(t)
}
