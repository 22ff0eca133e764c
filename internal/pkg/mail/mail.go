package mail

import (
	"context"
	"io"
)

// Message is a single email. At least one of To, Cc or Bcc must be set.
// When both bodies are present the HTML part is sent as an alternative to
// the text part.
type Message struct {
	From     string // optional, overrides the transport default
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers messages. Send must honor ctx cancellation.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
