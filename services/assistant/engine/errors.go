// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"errors"
	"fmt"
)

// ValidationError is returned when the inbound chat request itself is
// malformed (empty message, oversized content). This error should result in
// an HTTP 400 Bad Request response.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
// This is useful for handlers to determine the appropriate HTTP status code.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamModelError is returned when the model-completion backend errored
// or produced output the engine could not interpret. The turn still
// completes: the caller converts this into an apology reply and persists it
// best-effort.
type UpstreamModelError struct {
	Stage string
	Err   error
}

// Error implements the error interface for UpstreamModelError.
func (e *UpstreamModelError) Error() string {
	return fmt.Sprintf("model call failed during %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *UpstreamModelError) Unwrap() error {
	return e.Err
}

// IsUpstreamModelError checks if an error is an UpstreamModelError.
func IsUpstreamModelError(err error) bool {
	var ue *UpstreamModelError
	return errors.As(err, &ue)
}

// PersistenceError is returned when a conversation-store operation fails.
// Fatal to the turn; handlers map it to HTTP 500.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements the error interface for PersistenceError.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError checks if an error is a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
