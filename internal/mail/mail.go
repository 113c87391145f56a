// Package mail delivers customer emails through Resend.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ErrNotConfigured is returned by DisabledSender.
var ErrNotConfigured = errors.New("email delivery is not configured: RESEND_API_KEY is empty")

// Attachment is a file sent along with an email.
type Attachment struct {
	Filename string
	Content  []byte
}

// Email is a single outgoing message.
type Email struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers an email and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, e Email) (string, error)
}

// New returns a Resend sender, or a DisabledSender when apiKey is empty.
func New(apiKey, from string) Sender {
	if apiKey == "" {
		return DisabledSender{}
	}
	return NewResendSender(apiKey, from)
}

// DisabledSender fails every send with ErrNotConfigured.
type DisabledSender struct{}

func (DisabledSender) Send(context.Context, Email) (string, error) {
	return "", ErrNotConfigured
}

type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends through the Resend API.
type ResendSender struct {
	emails emailsAPI
	from   string
}

// NewResendSender creates a sender using apiKey with the given From address.
func NewResendSender(apiKey, from string) *ResendSender {
	client := resend.NewClient(apiKey)
	return &ResendSender{emails: client.Emails, from: from}
}

func (s *ResendSender) Send(ctx context.Context, e Email) (string, error) {
	if e.To == "" {
		return "", errors.New("email has no recipient")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{e.To},
		Subject: e.Subject,
		Text:    e.Text,
		Html:    e.HTML,
	}
	for _, a := range e.Attachments {
		params.Attachments = append(params.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}

	sent, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	return sent.Id, nil
}
