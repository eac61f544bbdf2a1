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
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

var storeTracer = otel.Tracer("studyrobo.assistant.store")

// Key prefixes. Each store type owns one prefix in the shared database.
const (
	convMetaPrefix   = "cm/"
	convTurnPrefix   = "ct/"
	legacyTurnPrefix = "ut/"
)

// Compile-time interface implementation check.
var _ ConversationStore = (*BadgerConversationStore)(nil)

// BadgerConversationStore implements ConversationStore on BadgerDB.
//
// # Key Layout
//
//	cm/<conversationID>                    -> conversation metadata JSON
//	ct/<conversationID>/<ts>-<seq>         -> turn JSON (conversation stream)
//	ut/<userID>/<ts>-<seq>                 -> turn JSON (legacy stream)
//
// <ts> is the zero-padded UnixNano creation time and <seq> a zero-padded
// process-wide insertion counter, so lexicographic key order is creation
// order with insertion-order tie-break. Listing a stream is a prefix scan.
type BadgerConversationStore struct {
	db  *badger.DB
	seq atomic.Uint64
}

// NewConversationStore creates a BadgerConversationStore on the shared
// database handle.
func NewConversationStore(db *badger.DB) *BadgerConversationStore {
	return &BadgerConversationStore{db: db}
}

// turnKey builds the ordered key for a new turn in the referenced stream.
func (s *BadgerConversationStore) turnKey(ref datatypes.StreamRef, at time.Time) []byte {
	seq := s.seq.Add(1)
	return []byte(fmt.Sprintf("%s%020d-%08d", streamPrefix(ref), at.UnixNano(), seq%100000000))
}

// streamPrefix returns the key prefix holding a stream's turns.
func streamPrefix(ref datatypes.StreamRef) string {
	if ref.IsLegacy() {
		return legacyTurnPrefix + ref.UserID + "/"
	}
	return convTurnPrefix + ref.ConversationID + "/"
}

// CreateConversation implements the ConversationStore interface.
func (s *BadgerConversationStore) CreateConversation(ctx context.Context, owner, title string) (string, error) {
	_, span := storeTracer.Start(ctx, "BadgerConversationStore.CreateConversation")
	defer span.End()

	conv := datatypes.Conversation{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	value, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(convMetaPrefix+conv.ID), value)
	})
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}

	slog.Info("Created conversation", "conversationId", conv.ID, "owner", owner)
	return conv.ID, nil
}

// GetConversation implements the ConversationStore interface.
func (s *BadgerConversationStore) GetConversation(ctx context.Context, id string) (*datatypes.Conversation, error) {
	var conv datatypes.Conversation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(convMetaPrefix + id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &conv) }); err != nil {
			return fmt.Errorf("decode conversation %s: %w", id, err)
		}
		// Derived, never incremented: count the turns that actually exist.
		conv.TurnCount = countPrefix(txn, convTurnPrefix+id+"/")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations implements the ConversationStore interface.
func (s *BadgerConversationStore) ListConversations(ctx context.Context, owner string) ([]datatypes.Conversation, error) {
	out := []datatypes.Conversation{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(convMetaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var conv datatypes.Conversation
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &conv) }); err != nil {
				return fmt.Errorf("decode conversation: %w", err)
			}
			if conv.OwnerID != owner {
				continue
			}
			conv.TurnCount = countPrefix(txn, convTurnPrefix+conv.ID+"/")
			out = append(out, conv)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RenameConversation implements the ConversationStore interface.
func (s *BadgerConversationStore) RenameConversation(ctx context.Context, id, requestingOwner, title string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		conv, err := readConversation(txn, id)
		if err != nil {
			return err
		}
		if conv.OwnerID != requestingOwner {
			return ErrNotOwner
		}
		conv.Title = title
		value, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("marshal conversation: %w", err)
		}
		return txn.Set([]byte(convMetaPrefix+id), value)
	})
}

// DeleteConversation implements the ConversationStore interface.
//
// The ownership check runs inside the same transaction as the delete, so a
// failed check leaves the conversation and every turn intact. Deletion
// cascades to the conversation's turn stream.
func (s *BadgerConversationStore) DeleteConversation(ctx context.Context, id, requestingOwner string) error {
	_, span := storeTracer.Start(ctx, "BadgerConversationStore.DeleteConversation")
	defer span.End()

	err := s.db.Update(func(txn *badger.Txn) error {
		conv, err := readConversation(txn, id)
		if err != nil {
			return err
		}
		if conv.OwnerID != requestingOwner {
			return ErrNotOwner
		}

		if err := txn.Delete([]byte(convMetaPrefix + id)); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(convTurnPrefix + id + "/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Deleted conversation", "conversationId", id, "owner", requestingOwner)
	return nil
}

// AppendTurn implements the ConversationStore interface.
func (s *BadgerConversationStore) AppendTurn(ctx context.Context, ref datatypes.StreamRef, role, content string) (*datatypes.Turn, error) {
	_, span := storeTracer.Start(ctx, "BadgerConversationStore.AppendTurn")
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	turn := datatypes.Turn{
		ID:             uuid.NewString(),
		ConversationID: ref.ConversationID,
		UserID:         ref.UserID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	value, err := json.Marshal(turn)
	if err != nil {
		return nil, fmt.Errorf("marshal turn: %w", err)
	}

	key := s.turnKey(ref, turn.CreatedAt)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}
	return &turn, nil
}

// ListTurns implements the ConversationStore interface.
func (s *BadgerConversationStore) ListTurns(ctx context.Context, ref datatypes.StreamRef) ([]datatypes.Turn, error) {
	out := []datatypes.Turn{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(streamPrefix(ref))
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var turn datatypes.Turn
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &turn) }); err != nil {
				return fmt.Errorf("decode turn: %w", err)
			}
			out = append(out, turn)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return out, nil
}

// readConversation fetches conversation metadata inside a transaction.
func readConversation(txn *badger.Txn, id string) (*datatypes.Conversation, error) {
	item, err := txn.Get([]byte(convMetaPrefix + id))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var conv datatypes.Conversation
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &conv) }); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

// countPrefix counts keys under a prefix without loading values.
func countPrefix(txn *badger.Txn, prefix string) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()
	n := 0
	for it.Rewind(); it.Valid(); it.Next() {
		n++
	}
	return n
}
