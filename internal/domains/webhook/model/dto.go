package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// CreateWebhookRequest is the body of POST /webhooks.
type CreateWebhookRequest struct {
	URL        string   `json:"url"`
	EventTypes []string `json:"event_types"`
	Enabled    *bool    `json:"enabled"`
}

func (r CreateWebhookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.Required, is.URL, validation.Length(1, 500)),
		validation.Field(&r.EventTypes, validation.Required, validation.Length(1, 0)),
	)
}

// UpdateWebhookRequest is the body of PUT /webhooks/:id. All fields optional.
type UpdateWebhookRequest struct {
	URL        *string  `json:"url"`
	EventTypes []string `json:"event_types"`
	Enabled    *bool    `json:"enabled"`
}

func (r UpdateWebhookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.URL, validation.NilOrNotEmpty, is.URL),
	)
}
