package email

import (
	"context"

	"github.com/qolzam/natours/internal/pkg/log"
)

// Message represents an email to be sent.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string // plain text
}

// Sender abstracts email sending for DI and testing.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
// It is used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	log.InfoWithContext(ctx, "email to %v: %s\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}
