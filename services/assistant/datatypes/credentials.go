// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// CredentialContext is the per-request bundle of authenticated identity and
// scoped external credentials.
//
// # Description
//
// Built by the auth middleware and handed unchanged to the dispatch engine
// and every capability provider. It is immutable for the duration of one
// request and is never persisted as a unit; its fields live in the user
// record, the token store, and the conversation record respectively.
//
// # Fields
//
//   - UserID: Stable opaque identifier of the authenticated user. Empty on
//     unauthenticated test traffic.
//   - GoogleAccessToken: Short-lived OAuth access token for Gmail/Calendar
//     capabilities. Empty when the user has not connected Google.
//   - ConversationID: Target conversation stream. Empty selects the legacy
//     per-user stream.
type CredentialContext struct {
	UserID            string
	GoogleAccessToken string
	ConversationID    string
}

// HasUser reports whether an authenticated user identity is present.
func (c CredentialContext) HasUser() bool {
	return c.UserID != ""
}

// HasGoogleToken reports whether a Google access token is present.
func (c CredentialContext) HasGoogleToken() bool {
	return c.GoogleAccessToken != ""
}

// Stream returns the turn stream this request writes to: the conversation
// stream when a conversation id is present, the legacy per-user stream
// otherwise.
func (c CredentialContext) Stream() StreamRef {
	if c.ConversationID != "" {
		return ConversationStream(c.ConversationID)
	}
	return LegacyStream(c.UserID)
}
