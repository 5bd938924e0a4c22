// Package contact validates and submits the site's contact form.
package contact

import (
	"context"
	"fmt"

	"github.com/lydakis/sitectl/internal/api"
	"github.com/lydakis/sitectl/internal/response"
	"go.uber.org/zap"
)

// DefaultErrorMessage is reported when the server rejects a message without saying why.
const DefaultErrorMessage = "An error occurred. Please try again."

// Sender delivers a contact message. *api.Service satisfies it.
type Sender interface {
	SendContactMessage(ctx context.Context, msg api.ContactMessage) (*response.Result, error)
}

// RejectedError is returned when the server answers without success.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("message rejected: %s", e.Message)
}

// Submitter validates messages before handing them to a Sender.
type Submitter struct {
	sender Sender
	logger *zap.Logger
}

// NewSubmitter returns a Submitter. logger may be nil.
func NewSubmitter(sender Sender, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{sender: sender, logger: logger}
}

// Fields returns the validation fields for msg: name, email and message are
// required, phone is optional.
func Fields(msg api.ContactMessage) []Field {
	return []Field{
		{Name: "name", Value: msg.Name, Required: true},
		{Name: "email", Value: msg.Email, Kind: KindEmail, Required: true},
		{Name: "phone", Value: msg.Phone, Kind: KindPhone},
		{Name: "message", Value: msg.Message, Required: true},
	}
}

// Validate checks msg against the contact form rules.
func Validate(msg api.ContactMessage) error {
	return ValidateFields(Fields(msg))
}

// Submit validates msg and sends it. The reply must carry "success": true;
// otherwise a *RejectedError holds the server's "message" or
// DefaultErrorMessage.
func (s *Submitter) Submit(ctx context.Context, msg api.ContactMessage) (*response.Result, error) {
	if err := Validate(msg); err != nil {
		return nil, err
	}

	res, err := s.sender.SendContactMessage(ctx, msg)
	if err != nil {
		s.logger.Error("contact form submission failed", zap.Error(err))
		return nil, err
	}

	var reply struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if res == nil || !res.JSON || res.Decode(&reply) != nil || !reply.Success {
		text := reply.Message
		if text == "" {
			text = DefaultErrorMessage
		}
		return res, &RejectedError{Message: text}
	}
	return res, nil
}
