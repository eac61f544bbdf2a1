// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// gmailService builds a Gmail client scoped to the student's access token.
func gmailService(ctx context.Context, accessToken string) (*gmail.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return gmail.NewService(ctx, option.WithTokenSource(source))
}

// isGoogleAuthError reports whether err is a Google API rejection of the
// token itself, which means the student must re-authorize rather than retry.
func isGoogleAuthError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return false
}

// googleFailure maps a Google API error to the right failure envelope.
func googleFailure(op string, err error) datatypes.ToolResult {
	if isGoogleAuthError(err) {
		return datatypes.ToolAuthFailure("reauthentication_required",
			"Google authorization expired or was revoked. Please reconnect your Google account.")
	}
	slog.Warn("Google API call failed", "operation", op, "error", err)
	return datatypes.ToolFailure(op+"_failed", "Could not reach Google services right now.")
}

// =============================================================================
// get_unread_emails
// =============================================================================

// UnreadEmailReader answers get_unread_emails requests against the
// student's Gmail inbox.
type UnreadEmailReader struct{}

var _ Capability = (*UnreadEmailReader)(nil)

// NewUnreadEmailReader builds the unread-email capability.
func NewUnreadEmailReader() *UnreadEmailReader {
	return &UnreadEmailReader{}
}

// Schema implements Capability.
func (e *UnreadEmailReader) Schema() Schema {
	return Schema{
		Name:        "get_unread_emails",
		Description: "List the student's unread inbox emails with sender, subject, and date. Use when the student asks about new or unread mail.",
		Params: []Param{
			{
				Name:        "limit",
				Type:        ParamInteger,
				Description: "Maximum number of emails to return (default 5)",
			},
		},
	}
}

// Requirements implements Capability.
func (e *UnreadEmailReader) Requirements() Requirements {
	return Requirements{GoogleToken: true}
}

// Invoke lists unread inbox messages and resolves their headline metadata.
func (e *UnreadEmailReader) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	limit := IntArg(args, "limit", 5)
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	srv, err := gmailService(ctx, creds.GoogleAccessToken)
	if err != nil {
		slog.Error("Gmail client init failed", "error", err)
		return datatypes.ToolFailure("gmail_init_failed", "Could not connect to Gmail.")
	}

	list, err := srv.Users.Messages.List("me").
		Q("is:unread in:inbox").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return googleFailure("gmail_list", err)
	}
	if len(list.Messages) == 0 {
		return datatypes.ToolSuccess("No unread emails.", map[string]any{"emails": []any{}, "count": 0})
	}

	emails := make([]map[string]any, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := srv.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			return googleFailure("gmail_read", err)
		}
		entry := map[string]any{"snippet": msg.Snippet}
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				entry["from"] = h.Value
			case "Subject":
				entry["subject"] = h.Value
			case "Date":
				entry["date"] = h.Value
			}
		}
		emails = append(emails, entry)
	}

	return datatypes.ToolSuccess(
		fmt.Sprintf("Found %d unread emails.", len(emails)),
		map[string]any{"emails": emails, "count": len(emails)},
	)
}

// =============================================================================
// draft_email
// =============================================================================

// EmailDrafter answers draft_email requests by saving a draft in the
// student's Gmail account. Drafts are never sent automatically.
type EmailDrafter struct{}

var _ Capability = (*EmailDrafter)(nil)

// NewEmailDrafter builds the email-drafting capability.
func NewEmailDrafter() *EmailDrafter {
	return &EmailDrafter{}
}

// Schema implements Capability.
func (e *EmailDrafter) Schema() Schema {
	return Schema{
		Name:        "draft_email",
		Description: "Save an email draft in the student's Gmail account. The draft is saved, never sent; the student reviews and sends it themselves.",
		Params: []Param{
			{
				Name:        "to",
				Type:        ParamString,
				Description: "Recipient email address",
				Required:    true,
			},
			{
				Name:        "subject",
				Type:        ParamString,
				Description: "Email subject line",
				Required:    true,
			},
			{
				Name:        "body",
				Type:        ParamString,
				Description: "Plain-text email body",
				Required:    true,
			},
		},
	}
}

// Requirements implements Capability.
func (e *EmailDrafter) Requirements() Requirements {
	return Requirements{GoogleToken: true}
}

// Invoke assembles an RFC 822 message and stores it as a draft.
func (e *EmailDrafter) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	to := StringArg(args, "to", "")
	subject := StringArg(args, "subject", "")
	body := StringArg(args, "body", "")

	srv, err := gmailService(ctx, creds.GoogleAccessToken)
	if err != nil {
		slog.Error("Gmail client init failed", "error", err)
		return datatypes.ToolFailure("gmail_init_failed", "Could not connect to Gmail.")
	}

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s", to, subject, body)
	draft := &gmail.Draft{
		Message: &gmail.Message{
			Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
		},
	}

	created, err := srv.Users.Drafts.Create("me", draft).Context(ctx).Do()
	if err != nil {
		return googleFailure("gmail_draft", err)
	}

	return datatypes.ToolSuccess(
		fmt.Sprintf("Draft saved to %s.", to),
		map[string]any{
			"draft_id": created.Id,
			"to":       to,
			"subject":  subject,
		},
	)
}
