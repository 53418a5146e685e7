package testutil

import (
	"context"
	"sync"

	platformemail "github.com/qolzam/natours/internal/platform/email"
)

// FakeEmailSender is an in-memory outbox.
type FakeEmailSender struct {
	mu     sync.Mutex
	outbox []platformemail.Message
	err    error
}

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{}
}

// Fail makes every following Send return err. Nil restores delivery.
func (f *FakeEmailSender) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeEmailSender) Send(_ context.Context, msg platformemail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.outbox = append(f.outbox, msg)
	return nil
}

// Outbox returns a copy of the delivered messages, oldest first.
func (f *FakeEmailSender) Outbox() []platformemail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platformemail.Message(nil), f.outbox...)
}

// LastSent returns the newest delivered message, or nil.
func (f *FakeEmailSender) LastSent() *platformemail.Message {
	out := f.Outbox()
	if len(out) == 0 {
		return nil
	}
	return &out[len(out)-1]
}
