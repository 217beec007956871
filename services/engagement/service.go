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
	"fmt"
	"log/slog"
	"time"
)

// Session identifies the caller for engagement operations. It is passed
// explicitly into every call; there is no ambient current-user state.
//
// A Session with an empty ClientID, or with ForceGuest set, is a guest:
// guests always observe stage browsing and never touch the store.
type Session struct {
	ClientID   string
	ForceGuest bool
}

// IsGuest reports whether the session has no usable client identity.
func (s Session) IsGuest() bool {
	return s.ForceGuest || s.ClientID == ""
}

// StageResult is what FetchStage reports to the presentation layer.
type StageResult struct {
	Stage   Stage
	Record  *Record // nil for guests and missing records
	IsGuest bool
}

// Service applies the stage transition policy on top of a record store.
//
// Storage failures are soft: reads degrade to stage browsing (a fresh
// anonymous relationship) rather than surfacing an inconsistent state,
// and nothing in this service is fatal to the process.
type Service struct {
	store  Store
	clock  Clock
	logger *slog.Logger
}

// NewService wires a Service. logger may be nil, in which case the
// default slog logger is used.
func NewService(st Store, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, clock: clock, logger: logger}
}

// FetchStage returns the caller's engagement stage with a trainer.
//
// Guests report browsing without any store I/O. A missing record is
// browsing, not an error. A store failure is logged and reported as
// browsing with a nil record.
func (s *Service) FetchStage(ctx context.Context, sess Session, trainerID string) StageResult {
	if sess.IsGuest() {
		return StageResult{Stage: StageBrowsing, IsGuest: true}
	}
	rec, err := s.store.Get(ctx, sess.ClientID, trainerID)
	if errors.Is(err, ErrNotFound) {
		return StageResult{Stage: StageBrowsing}
	}
	if err != nil {
		s.logger.Error("failed to read engagement record, reporting browsing",
			"clientId", sess.ClientID, "trainerId", trainerID, "error", err)
		return StageResult{Stage: StageBrowsing}
	}
	return StageResult{Stage: rec.Stage, Record: rec}
}

// UpdateStage upserts the record for (session, trainer) to newStage.
//
// No predecessor validation happens here: any stage may be set from any
// other, and sequencing correctness belongs to the caller. The milestone
// timestamp for newStage is populated on first entry only; milestones
// already set are never changed or cleared, in either direction.
func (s *Service) UpdateStage(ctx context.Context, sess Session, trainerID string, newStage Stage) error {
	return s.UpdateStageWithNotes(ctx, sess, trainerID, newStage, "")
}

// UpdateStageWithNotes is UpdateStage plus the client's free-form notes
// about the trainer. Empty notes leave any stored notes untouched, so
// internal stage advances never wipe what the client wrote.
func (s *Service) UpdateStageWithNotes(ctx context.Context, sess Session, trainerID string, newStage Stage, notes string) error {
	if sess.IsGuest() {
		return errors.New("guest sessions cannot update engagement stage")
	}
	if !newStage.Valid() {
		return fmt.Errorf("invalid engagement stage %q", newStage)
	}

	now := s.clock.Now()
	rec, err := s.store.Get(ctx, sess.ClientID, trainerID)
	switch {
	case errors.Is(err, ErrNotFound):
		rec = &Record{
			ClientID:  sess.ClientID,
			TrainerID: trainerID,
			CreatedAt: now,
		}
	case err != nil:
		return fmt.Errorf("read engagement record: %w", err)
	}

	rec.Stage = newStage
	rec.UpdatedAt = now
	if notes != "" {
		rec.Notes = notes
	}
	stampMilestone(rec, newStage, now)

	if err := s.store.Put(ctx, rec); err != nil {
		return fmt.Errorf("write engagement record: %w", err)
	}
	s.logger.Info("engagement stage updated",
		"clientId", sess.ClientID, "trainerId", trainerID, "stage", newStage)
	return nil
}

// Remove handles a client removing a trainer from their active list.
//
// If the trainer had declined, the record moves to declined_dismissed:
// the decline stays on file (it drives the "previously declined" label
// and suppresses match-warnings) but leaves the active list. From any
// other stage the record resets fully to browsing, as if no prior
// interaction occurred.
func (s *Service) Remove(ctx context.Context, sess Session, trainerID string) (Stage, error) {
	if sess.IsGuest() {
		return "", errors.New("guest sessions cannot remove trainers")
	}
	current := s.FetchStage(ctx, sess, trainerID).Stage

	target := StageBrowsing
	if current == StageDeclined {
		target = StageDeclinedDismissed
	}
	if err := s.UpdateStage(ctx, sess, trainerID, target); err != nil {
		return "", err
	}
	return target, nil
}

// Relationships returns every engagement record for the client. Guests
// get an empty list; store failures degrade to an empty list with a log
// line, matching FetchStage's soft-failure policy.
func (s *Service) Relationships(ctx context.Context, sess Session) []*Record {
	if sess.IsGuest() {
		return nil
	}
	recs, err := s.store.ListByClient(ctx, sess.ClientID)
	if err != nil {
		s.logger.Error("failed to list engagement records",
			"clientId", sess.ClientID, "error", err)
		return nil
	}
	return recs
}

// stampMilestone sets the once-only timestamp for stages that carry one.
// agreed stamps matched_at, the name the column kept from the legacy
// "matched" stage.
func stampMilestone(rec *Record, stage Stage, now time.Time) {
	switch stage {
	case StageLiked:
		if rec.LikedAt == nil {
			rec.LikedAt = &now
		}
	case StageAgreed:
		if rec.MatchedAt == nil {
			rec.MatchedAt = &now
		}
	case StageDiscoveryCompleted:
		if rec.DiscoveryCompletedAt == nil {
			rec.DiscoveryCompletedAt = &now
		}
	case StageActiveClient:
		if rec.BecameClientAt == nil {
			rec.BecameClientAt = &now
		}
	}
}
