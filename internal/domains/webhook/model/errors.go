package model

import "errors"

// ErrWebhookNotFound is returned when a webhook lookup misses.
var ErrWebhookNotFound = errors.New("webhook not found")
