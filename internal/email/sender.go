// Package email holds the outgoing message value and the transports that
// deliver it.
package email

import "context"

// Message is a two-part (plain text + HTML) email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
