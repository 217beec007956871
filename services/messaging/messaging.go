// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package messaging implements client/trainer conversations: one
// conversation per pair, append-only message history, unread counts,
// and live delivery to connected websocket clients via the Hub.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// Conversation is the metadata row for one client/trainer thread.
type Conversation struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	TrainerID     string    `json:"trainer_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Message is one entry in a conversation. ReadAt is set when the
// recipient marks the thread read.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Body           string     `json:"body"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// Clock abstracts time so tests can pin message ordering.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service persists conversations in the shared BadgerDB instance and
// pushes new messages to the Hub.
type Service struct {
	db    *badgerdb.DB
	hub   *Hub
	clock Clock
}

// NewService wires a Service. hub and clock may be nil (no live
// delivery, system time).
func NewService(db *badgerdb.DB, hub *Hub, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{db: db, hub: hub, clock: clock}
}

const (
	convPrefix = "conv/"
	msgPrefix  = "convmsg/"
)

func convKey(clientID, trainerID string) []byte {
	return []byte(convPrefix + clientID + "/" + trainerID)
}

// Message keys sort by send time within a conversation.
func msgKey(convID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", msgPrefix, convID, at.UnixNano(), id))
}

// EnsureConversation returns the pair's conversation, creating it on
// first contact.
func (s *Service) EnsureConversation(ctx context.Context, clientID, trainerID string) (*Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if clientID == "" || trainerID == "" {
		return nil, errors.New("conversation requires client and trainer ids")
	}
	var conv *Conversation
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		key := convKey(clientID, trainerID)
		item, err := txn.Get(key)
		if err == nil {
			return item.Value(func(val []byte) error {
				conv = &Conversation{}
				return json.Unmarshal(val, conv)
			})
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		now := s.clock.Now()
		conv = &Conversation{
			ID:        uuid.New().String(),
			ClientID:  clientID,
			TrainerID: trainerID,
			CreatedAt: now,
		}
		val, err := json.Marshal(conv)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Append adds a message from senderID and notifies the other
// participant's live connections.
func (s *Service) Append(ctx context.Context, conv *Conversation, senderID, body string) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if senderID != conv.ClientID && senderID != conv.TrainerID {
		return nil, fmt.Errorf("sender %s is not a participant", senderID)
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("message body is empty")
	}

	now := s.clock.Now()
	msg := &Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
		SentAt:         now,
	}
	msgVal, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	conv.LastMessageAt = now
	convVal, err := json.Marshal(conv)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(msgKey(conv.ID, now, msg.ID), msgVal); err != nil {
			return err
		}
		return txn.Set(convKey(conv.ClientID, conv.TrainerID), convVal)
	})
	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		recipient := conv.ClientID
		if senderID == conv.ClientID {
			recipient = conv.TrainerID
		}
		s.hub.Notify(recipient, msg)
	}
	return msg, nil
}

// Messages returns the conversation history in send order.
func (s *Service) Messages(ctx context.Context, convID string) ([]*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*Message
	prefix := []byte(msgPrefix + convID + "/")
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m Message
				if err := json.Unmarshal(val, &m); err != nil {
					return err
				}
				out = append(out, &m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConversationsForClient returns every thread the client participates
// in.
func (s *Service) ConversationsForClient(ctx context.Context, clientID string) ([]*Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*Conversation
	prefix := []byte(convPrefix + clientID + "/")
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c Conversation
				if err := json.Unmarshal(val, &c); err != nil {
					return err
				}
				out = append(out, &c)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation looks a thread up by pair.
func (s *Service) Conversation(ctx context.Context, clientID, trainerID string) (*Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var conv *Conversation
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(convKey(clientID, trainerID))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			conv = &Conversation{}
			return json.Unmarshal(val, conv)
		})
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// UnreadCount counts messages addressed to userID not yet marked read.
func (s *Service) UnreadCount(ctx context.Context, convID, userID string) (int, error) {
	msgs, err := s.Messages(ctx, convID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range msgs {
		if m.SenderID != userID && m.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

// MarkRead stamps every message addressed to userID as read. Idempotent.
func (s *Service) MarkRead(ctx context.Context, convID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.clock.Now()
	prefix := []byte(msgPrefix + convID + "/")
	return s.db.Update(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			var m Message
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			})
			if err != nil {
				return err
			}
			if m.SenderID == userID || m.ReadAt != nil {
				continue
			}
			m.ReadAt = &now
			val, err := json.Marshal(&m)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}
