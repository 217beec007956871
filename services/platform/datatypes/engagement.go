// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides request and response structures for the
// platform HTTP API.
//
// This file contains engagement stage and journey types. For trainer
// directory types, see trainers.go.
package datatypes

import "time"

// =============================================================================
// Engagement Stage
// =============================================================================

// UpdateStageRequest asks to move a client/trainer relationship to a
// new stage. Legacy stage names ("matched", "waitlist") are accepted
// and normalized server-side.
type UpdateStageRequest struct {
	Stage string `json:"stage" binding:"required,engagementstage"`
	Notes string `json:"notes,omitempty" binding:"omitempty,max=2000"`
}

// StageResponse reports the current stage of one relationship.
type StageResponse struct {
	TrainerID string `json:"trainer_id"`
	Stage     string `json:"stage"`
	IsGuest   bool   `json:"is_guest"`

	LikedAt              *time.Time `json:"liked_at,omitempty"`
	MatchedAt            *time.Time `json:"matched_at,omitempty"`
	DiscoveryCompletedAt *time.Time `json:"discovery_completed_at,omitempty"`
	BecameClientAt       *time.Time `json:"became_client_at,omitempty"`

	Notes string `json:"notes,omitempty"`
}

// RemoveResponse reports the stage a relationship landed on after the
// client removed the trainer from their lists.
type RemoveResponse struct {
	TrainerID string `json:"trainer_id"`
	Stage     string `json:"stage"`
}

// =============================================================================
// Journey
// =============================================================================

// JourneyResponse is the client's full journey dashboard: every
// relationship sorted into exactly one bucket, with per-bucket counts
// that always sum to Total.
type JourneyResponse struct {
	Buckets map[string][]JourneyEntry `json:"buckets"`
	Counts  map[string]int            `json:"counts"`
	Total   int                       `json:"total"`
}

// JourneyBucketResponse lists the trainers inside a single bucket, for
// drill-down views.
type JourneyBucketResponse struct {
	Bucket     string   `json:"bucket"`
	TrainerIDs []string `json:"trainer_ids"`
	Count      int      `json:"count"`
}

// JourneyEntry is one trainer inside a journey bucket.
type JourneyEntry struct {
	TrainerID  string `json:"trainer_id"`
	Stage      string `json:"stage"`
	OnWaitlist bool   `json:"on_waitlist,omitempty"`
}
