// Package events is the notification sink for the governance core. Emission
// is fire-and-forget: services log publish failures and move on, and no
// ordering is guaranteed across topics.
package events

import (
	"time"

	"projecthub/pkg/domain"
)

// Topic names a notification stream.
type Topic string

const (
	TopicAdminAdded   Topic = "admin.added"
	TopicAdminRemoved Topic = "admin.removed"

	TopicProjectRegistered Topic = "project.registered"
	TopicProjectUpdated    Topic = "project.updated"

	TopicVerificationRequested Topic = "verification.requested"
	TopicVerificationApproved  Topic = "verification.approved"
	TopicVerificationRejected  Topic = "verification.rejected"

	TopicFeeSet            Topic = "fee.set"
	TopicFeePaid           Topic = "fee.paid"
	TopicTreasuryWithdrawn Topic = "treasury.withdrawn"

	TopicReviewSubmitted Topic = "review.submitted"
	TopicReviewUpdated   Topic = "review.updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string            `json:"id"`
	Topic     Topic             `json:"topic"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     domain.Principal  `json:"actor,omitempty"`
	ProjectID domain.ProjectID  `json:"project_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
