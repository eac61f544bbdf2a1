// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

const attendancePrefix = "at/"

// Compile-time interface implementation check.
var _ AttendanceStore = (*BadgerAttendanceStore)(nil)

// BadgerAttendanceStore implements AttendanceStore on BadgerDB.
//
// Key layout: at/<userID>/<ts>-<seq> -> record JSON. Forward iteration
// yields oldest-first; List reverses in memory to return most recent first.
type BadgerAttendanceStore struct {
	db  *badger.DB
	seq atomic.Uint64
}

// NewAttendanceStore creates a BadgerAttendanceStore on the shared database
// handle.
func NewAttendanceStore(db *badger.DB) *BadgerAttendanceStore {
	return &BadgerAttendanceStore{db: db}
}

// Mark implements the AttendanceStore interface.
func (s *BadgerAttendanceStore) Mark(ctx context.Context, userID, courseName string) (*datatypes.AttendanceRecord, error) {
	record := datatypes.AttendanceRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseName: courseName,
		Status:     "Present",
		MarkedAt:   time.Now().UTC(),
	}
	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal attendance record: %w", err)
	}

	seq := s.seq.Add(1)
	key := fmt.Sprintf("%s%s/%020d-%08d", attendancePrefix, userID, record.MarkedAt.UnixNano(), seq%100000000)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return nil, fmt.Errorf("mark attendance: %w", err)
	}

	slog.Info("Marked attendance", "userId", userID, "course", courseName)
	return &record, nil
}

// List implements the AttendanceStore interface.
func (s *BadgerAttendanceStore) List(ctx context.Context, userID, courseName string) ([]datatypes.AttendanceRecord, error) {
	out := []datatypes.AttendanceRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(attendancePrefix + userID + "/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record datatypes.AttendanceRecord
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &record) }); err != nil {
				return fmt.Errorf("decode attendance record: %w", err)
			}
			if courseName != "" && record.CourseName != courseName {
				continue
			}
			out = append(out, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}

	// Most recent first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
