package memberpress

import (
	"strings"

	"github.com/JorisBrandt/PayImport/app/models"
)

// MemberPress subscription status values.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
	StatusCancelled = "cancelled"
	StatusStopped   = "stopped"
)

// TransformStatus maps a MemberPress subscription status onto the local
// subscription status vocabulary. Unknown values map to on hold rather than
// active so a typo never resurrects billing.
func TransformStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case StatusActive:
		return models.SubscriptionStatusActive
	case StatusPending:
		return models.SubscriptionStatusActive
	case StatusSuspended:
		return models.SubscriptionStatusOnHold
	case StatusCancelled, StatusStopped:
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusOnHold
	}
}

// TransformPeriodType maps a MemberPress period type onto an interval unit.
func TransformPeriodType(periodType string) string {
	switch strings.ToLower(strings.TrimSpace(periodType)) {
	case "days", "day":
		return models.IntervalDay
	case "weeks", "week":
		return models.IntervalWeek
	case "months", "month":
		return models.IntervalMonth
	case "years", "year":
		return models.IntervalYear
	default:
		return models.IntervalMonth
	}
}
