package infrastructure

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"ats/domain"
)

// LogMailer stands in for an email gateway: it renders the message and
// writes it to the log.
type LogMailer struct {
	from string
	log  logrus.FieldLogger
}

func NewLogMailer(from string, log logrus.FieldLogger) *LogMailer {
	return &LogMailer{from: from, log: log}
}

func (m *LogMailer) Deliver(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.RecipientEmail == "" {
		return fmt.Errorf("notification %s has no recipient", n.ID)
	}
	subject, body, err := RenderEmail(n)
	if err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"notification": n.ID,
		"from":         m.from,
		"to":           n.RecipientEmail,
		"subject":      subject,
	}).Info(body)
	return nil
}

// RenderEmail builds the subject and body for a notification kind.
func RenderEmail(n domain.Notification) (subject, body string, err error) {
	c := n.Context
	switch n.Kind {
	case domain.NotifyCandidateConfirmation:
		subject = "Application received"
		body = fmt.Sprintf("Hi %s, your application for %s has been received.", c["candidate"], c["job_title"])
	case domain.NotifyCandidateStatusUpdate:
		subject = "Application status updated"
		body = fmt.Sprintf("Hi %s, your application for %s moved from %s to %s.",
			c["candidate"], c["job_title"], c["from_stage"], c["to_stage"])
	case domain.NotifyRecruiterNewApplication:
		subject = fmt.Sprintf("New application for %s", c["job_title"])
		body = fmt.Sprintf("%s applied to %s (application %s).", c["candidate"], c["job_title"], c["application_id"])
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	return subject, body, nil
}
