// Package escalation decides when reports hide a comment.
package escalation

import (
	"github.com/comment-moderation-api/internal/models"
)

// ReasonThreshold is recorded as the moderation reason of an automatic escalation
const ReasonThreshold = "report_threshold_reached"

// Decision is the outcome of one report
type Decision struct {
	ShouldHide   bool
	NotifyAdmins bool
}

// Policy hides a comment once it has Threshold distinct reporters
type Policy struct {
	Threshold int
}

// NewPolicy returns a policy with the given threshold, at least 1
func NewPolicy(threshold int) Policy {
	if threshold < 1 {
		threshold = 1
	}
	return Policy{Threshold: threshold}
}

// OnReportAdded evaluates a comment whose report counter just became reportCount.
// c.Status must be the status read in the same unit of work as the counter.
func (p Policy) OnReportAdded(c *models.Comment, reportCount int) Decision {
	if c == nil || reportCount < p.Threshold {
		return Decision{}
	}
	if _, ok := models.NextStatus(c.Status, models.TransitionEscalate); !ok {
		return Decision{}
	}
	return Decision{ShouldHide: true, NotifyAdmins: true}
}
