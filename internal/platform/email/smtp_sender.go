package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/qolzam/natours/internal/platform/config"
)

// SMTPSender is the production implementation of the Sender interface.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates a new SMTP sender. Host and port are required.
func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("SMTP host and port are required")
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     strconv.Itoa(cfg.Port),
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		sendMail: smtp.SendMail,
	}, nil
}

// NewSender returns an SMTP sender when a host is configured and a LogSender otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if cfg.Host == "" {
		return LogSender{}, nil
	}
	return NewSMTPSender(cfg)
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = s.from
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	return s.sendMail(s.host+":"+s.port, auth, envelopeAddress(msg.From), msg.To, buildMessage(msg))
}

// buildMessage renders a minimal RFC 822 message with a plain text body.
func buildMessage(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// envelopeAddress strips a display name: "Natours <hello@natours.io>" becomes "hello@natours.io".
func envelopeAddress(from string) string {
	start := strings.LastIndex(from, "<")
	end := strings.LastIndex(from, ">")
	if start >= 0 && end > start {
		return from[start+1 : end]
	}
	return from
}
