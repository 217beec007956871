// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package scheduling manages discovery calls between clients and
// trainers: booking, confirmation, completion, and the cron-style
// reminder/expiry sweep.
//
// Completing a call is the caller's cue to advance the engagement stage
// to discovery_completed; this package never touches engagement records
// itself.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a discovery call does not exist.
var ErrNotFound = errors.New("discovery call not found")

// CallStatus is the lifecycle of one discovery call.
type CallStatus string

const (
	CallRequested CallStatus = "requested"
	CallConfirmed CallStatus = "confirmed"
	CallCompleted CallStatus = "completed"
	CallCancelled CallStatus = "cancelled"
	CallExpired   CallStatus = "expired"
)

// DiscoveryCall is one scheduled call between a client and a trainer.
type DiscoveryCall struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"client_id"`
	TrainerID   string     `json:"trainer_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	Status      CallStatus `json:"status"`

	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clock abstracts time for the sweep and tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Emailer is the transactional email provider's contract. The real
// provider lives outside this repository; LogEmailer stands in for it.
type Emailer interface {
	SendCallReminder(ctx context.Context, call *DiscoveryCall) error
}

// Service persists discovery calls in the shared BadgerDB instance.
type Service struct {
	db    *badgerdb.DB
	clock Clock
}

func NewService(db *badgerdb.DB, clock Clock) *Service {
	if clock == nil {
		clock = systemClock{}
	}
	return &Service{db: db, clock: clock}
}

const callPrefix = "call/"

func callKey(id string) []byte {
	return []byte(callPrefix + id)
}

// Book creates a call in status requested.
func (s *Service) Book(ctx context.Context, clientID, trainerID string, at time.Time) (*DiscoveryCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if clientID == "" || trainerID == "" {
		return nil, errors.New("booking requires client and trainer ids")
	}
	now := s.clock.Now()
	if at.Before(now) {
		return nil, errors.New("cannot book a call in the past")
	}
	call := &DiscoveryCall{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		TrainerID:   trainerID,
		ScheduledAt: at.UTC(),
		Status:      CallRequested,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.put(call); err != nil {
		return nil, err
	}
	return call, nil
}

// Get returns a call by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*DiscoveryCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var call *DiscoveryCall
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(callKey(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			call = &DiscoveryCall{}
			return json.Unmarshal(val, call)
		})
	})
	if err != nil {
		return nil, err
	}
	return call, nil
}

// transition moves a call between statuses, enforcing the small legal
// set. Unlike engagement stages, call statuses are validated: there is
// no product reason to un-complete a call.
func (s *Service) transition(ctx context.Context, id string, to CallStatus) (*DiscoveryCall, error) {
	call, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	legal := map[CallStatus][]CallStatus{
		CallRequested: {CallConfirmed, CallCancelled, CallExpired},
		CallConfirmed: {CallCompleted, CallCancelled},
	}
	allowed := false
	for _, st := range legal[call.Status] {
		if st == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move call %s from %s to %s", id, call.Status, to)
	}
	call.Status = to
	call.UpdatedAt = s.clock.Now()
	if err := s.put(call); err != nil {
		return nil, err
	}
	return call, nil
}

// Confirm marks a requested call confirmed.
func (s *Service) Confirm(ctx context.Context, id string) (*DiscoveryCall, error) {
	return s.transition(ctx, id, CallConfirmed)
}

// Complete marks a confirmed call completed.
func (s *Service) Complete(ctx context.Context, id string) (*DiscoveryCall, error) {
	return s.transition(ctx, id, CallCompleted)
}

// Cancel cancels a requested or confirmed call.
func (s *Service) Cancel(ctx context.Context, id string) (*DiscoveryCall, error) {
	return s.transition(ctx, id, CallCancelled)
}

// ListByClient returns every call the client booked.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*DiscoveryCall, error) {
	return s.list(ctx, func(c *DiscoveryCall) bool { return c.ClientID == clientID })
}

func (s *Service) list(ctx context.Context, keep func(*DiscoveryCall) bool) ([]*DiscoveryCall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*DiscoveryCall
	prefix := []byte(callPrefix)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c DiscoveryCall
				if err := json.Unmarshal(val, &c); err != nil {
					return err
				}
				if keep(&c) {
					out = append(out, &c)
				}
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

func (s *Service) put(call *DiscoveryCall) error {
	val, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("encode discovery call: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(callKey(call.ID), val)
	})
}
