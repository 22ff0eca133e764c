package mail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer is a development Mail implementation that prints messages to an
// io.Writer instead of delivering them. It must not be used in production.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter returns a Writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Send prints the plain-text rendition of msg.
func (w *Writer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	recipients := append(append(append([]string{}, msg.To...), msg.Cc...), msg.Bcc...)
	if len(recipients) == 0 {
		return ErrSMTPNoRecipients
	}

	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := fmt.Fprintf(w.out, "---- mail ----\nTo: %s\nSubject: %s\n\n%s\n--------------\n",
		strings.Join(recipients, ", "), msg.Subject, body)
	return err
}

// Close implements io.Closer.
func (w *Writer) Close() error {
	return nil
}
