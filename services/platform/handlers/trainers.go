// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	"github.com/Not-Another-Coach/nac-platform/services/media"
	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/platform/observability"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
)

// galleryURLTTL bounds how long a signed media link stays valid.
const galleryURLTTL = 15 * time.Minute

// parseOverride maps the optional override query value to a visibility
// state pointer. Empty means "no override".
func parseOverride(raw string) *engagement.VisibilityState {
	switch raw {
	case "hidden":
		v := engagement.VisibilityHidden
		return &v
	case "blurred":
		v := engagement.VisibilityBlurred
		return &v
	case "visible":
		v := engagement.VisibilityVisible
		return &v
	default:
		return nil
	}
}

// buildCard renders one trainer for one viewer: name, gallery, and
// testimonial disclosure all follow the viewer's engagement stage with
// this trainer, unless an explicit override applies.
func buildCard(c *gin.Context, p *profiles.TrainerProfile, stage engagement.Stage,
	override *engagement.VisibilityState, onWaitlist bool,
	resolver *engagement.Resolver, mediaStore media.MediaStore) datatypes.TrainerCard {

	identity := engagement.TrainerIdentity{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DisplayName: p.DisplayName,
	}

	nameLevel := resolver.NameLevelFor(stage, override)
	galleryState := resolver.Resolve(stage, override, engagement.ContentGallery)
	testimonialState := resolver.Resolve(stage, override, engagement.ContentTestimonials)
	observability.RecordVisibilityResolution(string(engagement.ContentGallery), string(galleryState))
	observability.RecordVisibilityResolution(string(engagement.ContentTestimonials), string(testimonialState))

	card := datatypes.TrainerCard{
		TrainerID:   p.ID,
		DisplayName: resolver.DisplayName(identity, stage, override),
		NameLevel:   string(nameLevel),
		Stage:       string(stage),

		Specializations: p.Specializations,
		ExperienceYears: p.ExperienceYears,
		HourlyRate:      p.HourlyRate,
		Rating:          p.Rating,
		TotalReviews:    p.TotalReviews,

		AcceptingClients: p.AcceptingClients,
		WaitlistOpen:     p.WaitlistOpen,
		OnWaitlist:       onWaitlist,

		GalleryState:      string(galleryState),
		TestimonialsState: string(testimonialState),
	}

	// Bio follows name disclosure: anonymous viewers get no bio text.
	if nameLevel != engagement.NameAnonymous {
		card.Bio = p.Bio
	}

	if galleryState == engagement.VisibilityVisible && mediaStore != nil {
		for _, key := range p.GalleryKeys {
			url, err := mediaStore.URL(c.Request.Context(), key, galleryURLTTL)
			if err != nil {
				slog.Warn("gallery url resolution failed", "trainerId", p.ID, "key", key, "error", err)
				continue
			}
			card.GalleryURLs = append(card.GalleryURLs, url)
		}
	}

	return card
}

// ListTrainers returns the directory with per-viewer disclosure
// applied. Guests see every card anonymized.
func ListTrainers(dir *profiles.Store, svc *engagement.Service,
	resolver *engagement.Resolver, mediaStore media.MediaStore) gin.HandlerFunc {

	return func(c *gin.Context) {
		var q datatypes.ListTrainersQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		list, err := dir.List(c.Request.Context(), profiles.Filter{
			Specialization: q.Specialization,
			MaxHourlyRate:  q.MaxHourlyRate,
			MinRating:      q.MinRating,
			AcceptingOnly:  q.AcceptingOnly,
		})
		if err != nil {
			slog.Error("trainer listing failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "trainer listing failed"})
			return
		}

		sess := middleware.GetSession(c)
		override := parseOverride(q.Override)

		var waitlists map[string]bool
		if !sess.IsGuest() {
			waitlists, err = dir.WaitlistedTrainers(c.Request.Context(), sess.ClientID)
			if err != nil {
				slog.Warn("waitlist lookup failed", "clientId", sess.ClientID, "error", err)
			}
		}

		cards := make([]datatypes.TrainerCard, 0, len(list))
		for _, p := range list {
			res := svc.FetchStage(c.Request.Context(), sess, p.ID)
			cards = append(cards, buildCard(c, p, res.Stage, override, waitlists[p.ID], resolver, mediaStore))
		}

		c.JSON(http.StatusOK, datatypes.ListTrainersResponse{
			Trainers: cards,
			Count:    len(cards),
		})
	}
}

// GetTrainer returns one trainer card with disclosure applied.
func GetTrainer(dir *profiles.Store, svc *engagement.Service,
	resolver *engagement.Resolver, mediaStore media.MediaStore) gin.HandlerFunc {

	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		p, err := dir.Get(c.Request.Context(), trainerID)
		if err != nil {
			if errors.Is(err, profiles.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "trainer not found"})
				return
			}
			slog.Error("trainer lookup failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "trainer lookup failed"})
			return
		}

		sess := middleware.GetSession(c)
		override := parseOverride(c.Query("override"))

		onWaitlist := false
		if !sess.IsGuest() {
			onWaitlist, _ = dir.OnWaitlist(c.Request.Context(), sess.ClientID, trainerID)
		}

		res := svc.FetchStage(c.Request.Context(), sess, trainerID)
		c.JSON(http.StatusOK, buildCard(c, p, res.Stage, override, onWaitlist, resolver, mediaStore))
	}
}

// UpsertTrainer creates or replaces a trainer profile. Back office use.
func UpsertTrainer(dir *profiles.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.UpsertTrainerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateID(req.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		p := &profiles.TrainerProfile{
			ID:              req.ID,
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			DisplayName:     req.DisplayName,
			Bio:             req.Bio,
			Specializations: req.Specializations,
			Certifications:  req.Certifications,
			ExperienceYears: req.ExperienceYears,
			HourlyRate:      req.HourlyRate,
			Rating:          req.Rating,
			TotalReviews:    req.TotalReviews,

			AcceptingClients: req.AcceptingClients,
			WaitlistOpen:     req.WaitlistOpen,

			GalleryKeys:     req.GalleryKeys,
			CertificateKeys: req.CertificateKeys,
		}
		if err := dir.Put(c.Request.Context(), p); err != nil {
			slog.Error("trainer upsert failed", "trainerId", req.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "trainer upsert failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "trainer_id": req.ID})
	}
}

// JoinWaitlist adds the caller to a trainer's waitlist. Idempotent.
func JoinWaitlist(dir *profiles.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		p, err := dir.Get(c.Request.Context(), trainerID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "trainer not found"})
			return
		}
		if !p.WaitlistOpen {
			c.JSON(http.StatusConflict, gin.H{"error": "waitlist is closed"})
			return
		}

		sess := middleware.GetSession(c)
		if err := dir.JoinWaitlist(c.Request.Context(), sess.ClientID, trainerID, time.Now().UTC()); err != nil {
			slog.Error("waitlist join failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "waitlist join failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "trainer_id": trainerID})
	}
}

// LeaveWaitlist removes the caller from a trainer's waitlist.
func LeaveWaitlist(dir *profiles.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		trainerID, err := validation.SanitizeID(c.Param("trainerId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trainer id"})
			return
		}

		sess := middleware.GetSession(c)
		if err := dir.LeaveWaitlist(c.Request.Context(), sess.ClientID, trainerID); err != nil {
			slog.Error("waitlist leave failed", "trainerId", trainerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "waitlist leave failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "trainer_id": trainerID})
	}
}
