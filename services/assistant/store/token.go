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

	"github.com/dgraph-io/badger/v4"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

const tokenPrefix = "tk/"

// Compile-time interface implementation check.
var _ TokenStore = (*BadgerTokenStore)(nil)

// BadgerTokenStore implements TokenStore on BadgerDB.
// Key layout: tk/<externalID> -> token record JSON.
type BadgerTokenStore struct {
	db *badger.DB
}

// NewTokenStore creates a BadgerTokenStore on the shared database handle.
func NewTokenStore(db *badger.DB) *BadgerTokenStore {
	return &BadgerTokenStore{db: db}
}

// Get implements the TokenStore interface.
func (s *BadgerTokenStore) Get(ctx context.Context, externalID string) (*datatypes.TokenRecord, error) {
	var record datatypes.TokenRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tokenPrefix + externalID))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error { return json.Unmarshal(v, &record) })
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Put implements the TokenStore interface.
func (s *BadgerTokenStore) Put(ctx context.Context, record *datatypes.TokenRecord) error {
	if record == nil || record.ExternalID == "" {
		return fmt.Errorf("token record requires an external id")
	}
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal token record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(tokenPrefix+record.ExternalID), value)
	})
	if err != nil {
		return fmt.Errorf("store token record: %w", err)
	}
	return nil
}
