// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engagement

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when no engagement record exists
// for a client/trainer pair. Callers treat this as stage browsing, not
// as a failure.
var ErrNotFound = errors.New("engagement record not found")

// Record is the persisted state of one client/trainer relationship.
// At most one record exists per (ClientID, TrainerID) pair.
//
// Milestone timestamps are set the first time the relationship reaches
// the corresponding stage and are never cleared afterwards, including on
// backward transitions. Records are never physically deleted by normal
// flow; removal transitions the stage instead so the "previously
// declined" signal survives.
type Record struct {
	ClientID  string `json:"client_id"`
	TrainerID string `json:"trainer_id"`
	Stage     Stage  `json:"stage"`

	LikedAt              *time.Time `json:"liked_at,omitempty"`
	MatchedAt            *time.Time `json:"matched_at,omitempty"`
	DiscoveryCompletedAt *time.Time `json:"discovery_completed_at,omitempty"`
	BecameClientAt       *time.Time `json:"became_client_at,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence seam for engagement records. The hosted
// deployment points it at the managed relational backend; self-hosted
// and test deployments use the BadgerDB implementation in the store
// subpackage.
//
// Writes are last-write-wins: there is no version check, and two
// concurrent Puts for the same pair race at the storage layer.
type Store interface {
	// Get returns the record for the pair, or ErrNotFound.
	Get(ctx context.Context, clientID, trainerID string) (*Record, error)

	// Put upserts the record, keyed by (ClientID, TrainerID).
	Put(ctx context.Context, rec *Record) error

	// ListByClient returns every record for the client, in key order.
	ListByClient(ctx context.Context, clientID string) ([]*Record, error)
}
