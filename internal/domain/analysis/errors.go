package analysis

import "errors"

// ErrNoText is returned when the request carries no document text.
var ErrNoText = errors.New("no text provided")

// ErrEmptyCompletion indicates the provider answered without any message content.
var ErrEmptyCompletion = errors.New("no response from OpenAI")

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
