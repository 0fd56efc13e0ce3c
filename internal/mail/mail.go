// Package mail renders notification emails and hands them to a Sender.
package mail

import (
	"context"
	"errors"
)

var ErrNoRecipients = errors.New("mail: message has no recipients")

type Address struct {
	Name  string
	Email string
}

type Message struct {
	To      []Address
	Subject string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
