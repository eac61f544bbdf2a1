// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package identity provides bearer-credential verification for the assistant
// backend.
//
// The core never parses raw tokens itself: the transport layer hands the
// bearer credential to a Verifier, which yields the stable user identity the
// credential context is built from. Implementations must be safe for
// concurrent use.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrUnauthorized is returned when a bearer credential is missing, expired,
// or otherwise invalid. Implementations wrap it with additional context.
var ErrUnauthorized = errors.New("unauthorized")

// Info contains identity information returned after successful verification.
type Info struct {
	// UserID is the stable opaque identifier for the authenticated user.
	// Never empty on a successful verification.
	UserID string

	// Email is the user's email address. May be empty.
	Email string

	// ExternalID is the identity provider's subject identifier (e.g. the
	// Google account id). Used to key the external token store.
	ExternalID string
}

// Verifier validates a bearer credential and returns the user's identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Verifier interface {
	// Verify checks the credential and returns the identity it proves.
	// Returns ErrUnauthorized (possibly wrapped) when the credential is
	// invalid; any other error indicates a verifier-side failure.
	Verify(ctx context.Context, credential string) (*Info, error)
}

// =============================================================================
// Static Verifier
// =============================================================================

// StaticVerifier accepts any non-empty credential and returns a fixed local
// identity. It exists so the backend can run without identity infrastructure
// in development and in tests.
type StaticVerifier struct {
	// User is returned for every non-empty credential. Zero value yields a
	// "local-user" identity.
	User Info
}

// Verify implements the Verifier interface.
func (v *StaticVerifier) Verify(_ context.Context, credential string) (*Info, error) {
	if credential == "" {
		return nil, fmt.Errorf("empty bearer credential: %w", ErrUnauthorized)
	}
	info := v.User
	if info.UserID == "" {
		info.UserID = "local-user"
	}
	return &info, nil
}

// =============================================================================
// Google Verifier
// =============================================================================

// googleTokenInfoURL is the endpoint that resolves an OAuth access token to
// the account it belongs to.
const googleTokenInfoURL = "https://www.googleapis.com/oauth2/v3/tokeninfo"

// GoogleVerifier resolves Google OAuth access tokens to user identities via
// the tokeninfo endpoint.
type GoogleVerifier struct {
	httpClient *http.Client
	endpoint   string
}

// NewGoogleVerifier creates a GoogleVerifier with a bounded HTTP timeout.
func NewGoogleVerifier() *GoogleVerifier {
	return &GoogleVerifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   googleTokenInfoURL,
	}
}

// tokenInfoResponse is the subset of the tokeninfo payload we consume.
type tokenInfoResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Error string `json:"error_description"`
}

// Verify implements the Verifier interface.
//
// # Description
//
// Calls the Google tokeninfo endpoint with the access token. A 4xx status
// maps to ErrUnauthorized; transport failures surface as verifier errors so
// callers can distinguish "bad credential" from "identity provider down".
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*Info, error) {
	if credential == "" {
		return nil, fmt.Errorf("empty bearer credential: %w", ErrUnauthorized)
	}

	reqURL := v.endpoint + "?access_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tokeninfo response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, fmt.Errorf("token rejected by Google (status %d): %w", resp.StatusCode, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("parsing tokeninfo response: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("tokeninfo response missing subject: %w", ErrUnauthorized)
	}

	return &Info{
		UserID:     info.Sub,
		Email:      info.Email,
		ExternalID: info.Sub,
	}, nil
}
