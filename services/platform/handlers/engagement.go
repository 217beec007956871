// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/platform/observability"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
)

// stageResponse flattens a stage result for the wire.
func stageResponse(trainerID string, res engagement.StageResult) datatypes.StageResponse {
	out := datatypes.StageResponse{
		TrainerID: trainerID,
		Stage:     string(res.Stage),
		IsGuest:   res.IsGuest,
	}
	if rec := res.Record; rec != nil {
		out.LikedAt = rec.LikedAt
		out.MatchedAt = rec.MatchedAt
		out.DiscoveryCompletedAt = rec.DiscoveryCompletedAt
		out.BecameClientAt = rec.BecameClientAt
		out.Notes = rec.Notes
	}
	return out
}

// GetStage returns the caller's engagement stage with one trainer.
// Guests always see browsing; a missing record reads as browsing too.
func GetStage(svc *engagement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		res := svc.FetchStage(c.Request.Context(), middleware.GetSession(c), trainerID)
		c.JSON(http.StatusOK, stageResponse(trainerID, res))
	}
}

// UpdateStage moves the relationship to the requested stage. Any valid
// target is accepted; there is no predecessor check, and milestone
// timestamps are stamped only on first entry.
func UpdateStage(svc *engagement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		var req datatypes.UpdateStageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		stage, err := engagement.NormalizeStage(req.Stage)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sess := middleware.GetSession(c)
		before := svc.FetchStage(c.Request.Context(), sess, trainerID)

		if err := svc.UpdateStageWithNotes(c.Request.Context(), sess, trainerID, stage, req.Notes); err != nil {
			slog.Error("stage update failed", "trainerId", trainerID, "stage", stage, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stage update failed"})
			return
		}
		observability.RecordStageTransition(string(before.Stage), string(stage))

		res := svc.FetchStage(c.Request.Context(), sess, trainerID)
		c.JSON(http.StatusOK, stageResponse(trainerID, res))
	}
}

// RemoveTrainer takes a trainer off the client's lists. A declined
// relationship becomes declined_dismissed; everything else resets to
// browsing. Milestone history survives the reset.
func RemoveTrainer(svc *engagement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		sess := middleware.GetSession(c)
		before := svc.FetchStage(c.Request.Context(), sess, trainerID)

		stage, err := svc.Remove(c.Request.Context(), sess, trainerID)
		if err != nil {
			slog.Error("remove failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
			return
		}
		observability.RecordStageTransition(string(before.Stage), string(stage))

		c.JSON(http.StatusOK, datatypes.RemoveResponse{
			TrainerID: trainerID,
			Stage:     string(stage),
		})
	}
}

// GetJourney assembles the client's journey dashboard: every
// relationship sorted into exactly one bucket. Waitlist membership is
// fetched concurrently with the relationship list and overrides the
// stage-derived bucket.
func GetJourney(svc *engagement.Service, dir *profiles.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rels := journeyRelationships(c, svc, dir)

		buckets := make(map[string][]datatypes.JourneyEntry, 5)
		for _, b := range engagement.Buckets() {
			buckets[string(b)] = []datatypes.JourneyEntry{}
		}
		for _, rel := range rels {
			b := string(engagement.BucketFor(rel))
			buckets[b] = append(buckets[b], datatypes.JourneyEntry{
				TrainerID:  rel.TrainerID,
				Stage:      string(rel.Stage),
				OnWaitlist: rel.OnWaitlist,
			})
		}

		counts := make(map[string]int, 5)
		for b, n := range engagement.JourneyCounts(rels) {
			counts[string(b)] = n
		}

		if m := observability.DefaultMetrics; m != nil {
			m.JourneyRequestsTotal.Inc()
		}

		c.JSON(http.StatusOK, datatypes.JourneyResponse{
			Buckets: buckets,
			Counts:  counts,
			Total:   len(rels),
		})
	}
}

// GetJourneyBucket lists the trainers inside one journey bucket, for
// drill-down dashboard views.
func GetJourneyBucket(svc *engagement.Service, dir *profiles.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket := engagement.Bucket(c.Param("bucket"))
		valid := false
		for _, b := range engagement.Buckets() {
			if b == bucket {
				valid = true
				break
			}
		}
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown journey bucket"})
			return
		}

		rels := journeyRelationships(c, svc, dir)
		trainerIDs := engagement.TrainersForBucket(rels, bucket)

		if m := observability.DefaultMetrics; m != nil {
			m.JourneyRequestsTotal.Inc()
		}

		c.JSON(http.StatusOK, datatypes.JourneyBucketResponse{
			Bucket:     string(bucket),
			TrainerIDs: trainerIDs,
			Count:      len(trainerIDs),
		})
	}
}

// journeyRelationships assembles the caller's relationship list with
// waitlist membership folded in. Relationship and waitlist reads run
// concurrently; a waitlist lookup failure is advisory and the dashboard
// still renders with stage-derived buckets only.
func journeyRelationships(c *gin.Context, svc *engagement.Service, dir *profiles.Store) []engagement.Relationship {
	sess := middleware.GetSession(c)

	var (
		records   []*engagement.Record
		waitlists map[string]bool
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		records = svc.Relationships(ctx, sess)
		return nil
	})
	g.Go(func() error {
		if sess.IsGuest() {
			return nil
		}
		var err error
		waitlists, err = dir.WaitlistedTrainers(ctx, sess.ClientID)
		if err != nil {
			slog.Warn("waitlist lookup failed", "clientId", sess.ClientID, "error", err)
			waitlists = nil
		}
		return nil
	})
	_ = g.Wait()

	rels := make([]engagement.Relationship, 0, len(records))
	for _, rec := range records {
		rels = append(rels, engagement.Relationship{
			TrainerID:  rec.TrainerID,
			Stage:      rec.Stage,
			OnWaitlist: waitlists[rec.TrainerID],
		})
	}
	return rels
}
