// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

func newTestDB(t *testing.T) *BadgerAttendanceStore {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAttendanceStore(db)
}

// TestAttendanceMarkAndList verifies marking appends exactly one record per
// call and listing returns most recent first.
func TestAttendanceMarkAndList(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	before := time.Now()
	rec, err := s.Mark(ctx, "student-1", "CS101")
	require.NoError(t, err)
	assert.Equal(t, "CS101", rec.CourseName)
	assert.Equal(t, "Present", rec.Status)
	assert.False(t, rec.MarkedAt.Before(before.Add(-time.Second)))

	_, err = s.Mark(ctx, "student-1", "MA201")
	require.NoError(t, err)

	records, err := s.List(ctx, "student-1", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "MA201", records[0].CourseName, "most recent record first")
	assert.Equal(t, "CS101", records[1].CourseName)
}

// TestAttendanceList_CourseFilter verifies the optional course filter.
func TestAttendanceList_CourseFilter(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	for _, course := range []string{"CS101", "MA201", "CS101"} {
		_, err := s.Mark(ctx, "student-1", course)
		require.NoError(t, err)
	}

	filtered, err := s.List(ctx, "student-1", "CS101")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
	for _, rec := range filtered {
		assert.Equal(t, "CS101", rec.CourseName)
	}
}

// TestAttendanceList_UserIsolation verifies records never leak across
// users.
func TestAttendanceList_UserIsolation(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	_, err := s.Mark(ctx, "student-1", "CS101")
	require.NoError(t, err)

	other, err := s.List(ctx, "student-2", "")
	require.NoError(t, err)
	assert.Empty(t, other)
}

// TestTokenStore_RoundTrip verifies put/get and the not-found path.
func TestTokenStore_RoundTrip(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewTokenStore(db)
	ctx := context.Background()

	_, err = s.Get(ctx, "google-sub-1")
	assert.ErrorIs(t, err, ErrNotFound)

	record := &datatypes.TokenRecord{
		ExternalID:  "google-sub-1",
		AccessToken: "ya29.token",
		Expiry:      time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, s.Put(ctx, record))

	got, err := s.Get(ctx, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, "ya29.token", got.AccessToken)
}
