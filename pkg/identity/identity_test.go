// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTokenInfoVerifier builds a GoogleVerifier pointed at a stub tokeninfo
// endpoint serving the given status and body.
func newTokenInfoVerifier(t *testing.T, status int, body string) (*GoogleVerifier, *string) {
	t.Helper()
	var seenToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenToken = r.URL.Query().Get("access_token")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &GoogleVerifier{httpClient: srv.Client(), endpoint: srv.URL}, &seenToken
}

// TestGoogleVerifier_ValidToken verifies a successful tokeninfo lookup maps
// the subject to both the user id and the external id.
func TestGoogleVerifier_ValidToken(t *testing.T) {
	v, seenToken := newTokenInfoVerifier(t, http.StatusOK,
		`{"sub": "google-sub-42", "email": "student@example.edu"}`)

	info, err := v.Verify(context.Background(), "ya29.token")
	require.NoError(t, err)
	assert.Equal(t, "google-sub-42", info.UserID)
	assert.Equal(t, "google-sub-42", info.ExternalID)
	assert.Equal(t, "student@example.edu", info.Email)
	assert.Equal(t, "ya29.token", *seenToken, "the credential must reach the endpoint as access_token")
}

// TestGoogleVerifier_RejectedToken verifies a 4xx from tokeninfo maps to
// ErrUnauthorized so the middleware answers 401, not 500.
func TestGoogleVerifier_RejectedToken(t *testing.T) {
	v, _ := newTokenInfoVerifier(t, http.StatusUnauthorized,
		`{"error_description": "Invalid Value"}`)

	_, err := v.Verify(context.Background(), "expired-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// TestGoogleVerifier_ProviderDown verifies a 5xx surfaces as a verifier-side
// failure distinct from a bad credential.
func TestGoogleVerifier_ProviderDown(t *testing.T) {
	v, _ := newTokenInfoVerifier(t, http.StatusInternalServerError, "")

	_, err := v.Verify(context.Background(), "some-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized, "a provider outage is not an invalid credential")
}

// TestGoogleVerifier_MissingSubject verifies a 200 without a subject is
// rejected: an identity with no stable id cannot key anything.
func TestGoogleVerifier_MissingSubject(t *testing.T) {
	v, _ := newTokenInfoVerifier(t, http.StatusOK, `{"email": "student@example.edu"}`)

	_, err := v.Verify(context.Background(), "odd-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// TestGoogleVerifier_EmptyCredential verifies the empty credential is
// rejected without calling the endpoint.
func TestGoogleVerifier_EmptyCredential(t *testing.T) {
	v, seenToken := newTokenInfoVerifier(t, http.StatusOK, `{"sub": "x"}`)

	_, err := v.Verify(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, *seenToken, "no request must be made for an empty credential")
}
