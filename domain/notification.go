package domain

import "context"

type NotificationKind string

const (
	NotifyCandidateConfirmation   NotificationKind = "candidate_confirmation"
	NotifyCandidateStatusUpdate   NotificationKind = "candidate_status_update"
	NotifyRecruiterNewApplication NotificationKind = "recruiter_new_application"
)

// Notification is a best-effort message produced after a commit.
type Notification struct {
	ID             string            `json:"id"`
	Kind           NotificationKind  `json:"kind"`
	RecipientEmail string            `json:"recipient_email"`
	Context        map[string]string `json:"context,omitempty"`
}

// Notifier accepts notifications without blocking the caller. Delivery
// failures are the implementation's concern and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}
