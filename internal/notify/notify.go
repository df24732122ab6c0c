// Package notify delivers best-effort notifications about account and application events.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EventType identifies a notification template.
type EventType string

const (
	EventSignupWelcome       EventType = "signup-welcome"
	EventApplicationReceived EventType = "investor-application-received"
	EventAdminAlert          EventType = "admin-alert"
	EventPasswordReset       EventType = "password-reset"
	EventApplicationDecided  EventType = "investor-application-decided"
)

// Message is one notification addressed to a single recipient.
type Message struct {
	Type      EventType         `json:"type"`
	To        string            `json:"to"`
	FirstName string            `json:"firstName,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Result reports whether the notifier handed the message off.
type Result struct {
	Delivered bool `json:"delivered"`
}

// Notifier sends a message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) (Result, error)
}

// Render formats the subject and plain-text body for msg.
func Render(msg Message) (string, string) {
	name := strings.TrimSpace(msg.FirstName)
	if name == "" {
		name = "there"
	}
	switch msg.Type {
	case EventSignupWelcome:
		return "Welcome to the investor portal",
			fmt.Sprintf("Hi %s,\n\nYour account is ready. Sign in to review materials or apply for investor access.", name)
	case EventApplicationReceived:
		return "We received your investor application",
			fmt.Sprintf("Hi %s,\n\nThanks for applying. Our team will review your application and get back to you.", name)
	case EventAdminAlert:
		return "New investor application",
			fmt.Sprintf("%s submitted an investor application (accredited: %s).\n\nReview it in the admin dashboard.",
				msg.Data["applicant"], msg.Data["accreditation"])
	case EventPasswordReset:
		return "Reset your password",
			fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in %s.\n\n%s",
				name, msg.Data["expiresIn"], msg.Data["resetURL"])
	case EventApplicationDecided:
		return "Your investor application was reviewed",
			fmt.Sprintf("Hi %s,\n\nYour investor application was %s.", name, msg.Data["decision"])
	default:
		return string(msg.Type), ""
	}
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses the standard logrus logger.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, msg Message) (Result, error) {
	subject, body := Render(msg)
	n.logger.WithFields(logrus.Fields{
		"event":   msg.Type,
		"to":      msg.To,
		"subject": subject,
	}).Info(body)
	return Result{Delivered: true}, nil
}
