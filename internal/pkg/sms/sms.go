// Package sms sends text messages through an HTTP gateway.
package sms

import (
	"context"
	"io"
)

// Message is a single outbound text message.
type Message struct {
	To   string
	Body string
}

// SMS abstracts a text message provider.
type SMS interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
