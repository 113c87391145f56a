package models

import (
	"strings"
	"time"

	"github.com/ukydev/garage-service/internal/apperr"
)

// Client is a person who owns zero or more vehicles serviced by the shop.
type Client struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Phone      string    `bson:"phone" json:"phone"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	NationalID string    `bson:"national_id,omitempty" json:"national_id,omitempty"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// ClientInput is the validated payload for creating or updating a client.
type ClientInput struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	NationalID string `json:"national_id"`
	Notes      string `json:"notes"`
}

// Validate checks required fields and normalizes whitespace.
func (in *ClientInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.Name == "" {
		return apperr.NewValidationError("name is required")
	}
	if in.Phone == "" {
		return apperr.NewValidationError("phone is required")
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return apperr.NewValidationError("invalid email format")
	}
	return nil
}

// Apply copies the input onto a client, keeping id and creation time.
func (in ClientInput) Apply(c Client) Client {
	c.Name = in.Name
	c.Phone = in.Phone
	c.Email = in.Email
	c.NationalID = in.NationalID
	c.Notes = in.Notes
	return c
}
