// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Not-Another-Coach/nac-platform/services/platform/datatypes"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
)

func seedTrainer(t *testing.T, env *testEnv, id, first, last string) {
	t.Helper()
	require.NoError(t, env.profiles.Put(t.Context(), &profiles.TrainerProfile{
		ID:               id,
		FirstName:        first,
		LastName:         last,
		Bio:              "Strength and conditioning coach.",
		Specializations:  []string{"strength"},
		HourlyRate:       80,
		Rating:           4.8,
		AcceptingClients: true,
		WaitlistOpen:     true,
	}))
}

// ============================================================================
// Disclosure Tests
// ============================================================================

func TestGetTrainer_GuestSeesPseudonym(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	w := env.do(t, "GET", "/trainers/trainer-1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	card := decode[datatypes.TrainerCard](t, w)
	assert.True(t, strings.HasPrefix(card.DisplayName, "Coach "), "got %q", card.DisplayName)
	assert.NotContains(t, card.DisplayName, "Dana")
	assert.Equal(t, "anonymous", card.NameLevel)
	assert.Equal(t, "hidden", card.GalleryState)
	assert.Empty(t, card.Bio, "anonymous viewers get no bio")
}

func TestGetTrainer_LikedShowsFirstName(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	env.do(t, "PUT", "/engagement/trainer-1", "client-1",
		datatypes.UpdateStageRequest{Stage: "liked"})

	card := decode[datatypes.TrainerCard](t, env.do(t, "GET", "/trainers/trainer-1", "client-1", nil))
	assert.Equal(t, "Dana", card.DisplayName)
	assert.Equal(t, "first_name", card.NameLevel)
}

func TestGetTrainer_ShortlistAnonymizes(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	// liked shows a first name; shortlisted, one step LATER in the
	// progression, drops back to the pseudonym.
	env.do(t, "PUT", "/engagement/trainer-1", "client-1",
		datatypes.UpdateStageRequest{Stage: "shortlisted"})

	card := decode[datatypes.TrainerCard](t, env.do(t, "GET", "/trainers/trainer-1", "client-1", nil))
	assert.Equal(t, "anonymous", card.NameLevel)
	assert.True(t, strings.HasPrefix(card.DisplayName, "Coach "))
	assert.Equal(t, "hidden", card.GalleryState)
}

func TestGetTrainer_VisibleOverrideBeatsShortlist(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	env.do(t, "PUT", "/engagement/trainer-1", "client-1",
		datatypes.UpdateStageRequest{Stage: "shortlisted"})

	card := decode[datatypes.TrainerCard](t,
		env.do(t, "GET", "/trainers/trainer-1?override=visible", "client-1", nil))
	assert.Equal(t, "full", card.NameLevel)
	assert.Equal(t, "Dana Whitfield", card.DisplayName)
	assert.Equal(t, "visible", card.GalleryState)
}

func TestGetTrainer_AgreedShowsFullName(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	env.do(t, "PUT", "/engagement/trainer-1", "client-1",
		datatypes.UpdateStageRequest{Stage: "agreed"})

	card := decode[datatypes.TrainerCard](t, env.do(t, "GET", "/trainers/trainer-1", "client-1", nil))
	assert.Equal(t, "Dana Whitfield", card.DisplayName)
	assert.Equal(t, "full", card.NameLevel)
	assert.Equal(t, "visible", card.TestimonialsState)
}

func TestGetTrainer_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/trainers/missing", "client-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ============================================================================
// Directory Listing Tests
// ============================================================================

func TestListTrainers_FiltersApply(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")
	require.NoError(t, env.profiles.Put(t.Context(), &profiles.TrainerProfile{
		ID: "trainer-2", FirstName: "Sam", Specializations: []string{"yoga"},
		HourlyRate: 120, Rating: 4.2, AcceptingClients: false,
	}))

	res := decode[datatypes.ListTrainersResponse](t,
		env.do(t, "GET", "/trainers?specialization=strength", "", nil))
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "trainer-1", res.Trainers[0].TrainerID)

	res = decode[datatypes.ListTrainersResponse](t,
		env.do(t, "GET", "/trainers?accepting=true", "", nil))
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "trainer-1", res.Trainers[0].TrainerID)
}

func TestListTrainers_PerTrainerDisclosure(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")
	seedTrainer(t, env, "trainer-2", "Sam", "Ortiz")

	env.do(t, "PUT", "/engagement/trainer-1", "client-1",
		datatypes.UpdateStageRequest{Stage: "agreed"})

	res := decode[datatypes.ListTrainersResponse](t,
		env.do(t, "GET", "/trainers", "client-1", nil))
	require.Equal(t, 2, res.Count)

	byID := make(map[string]datatypes.TrainerCard)
	for _, card := range res.Trainers {
		byID[card.TrainerID] = card
	}
	assert.Equal(t, "Dana Whitfield", byID["trainer-1"].DisplayName)
	assert.Equal(t, "anonymous", byID["trainer-2"].NameLevel)
}

// ============================================================================
// Waitlist Tests
// ============================================================================

func TestJoinWaitlist_ClosedWaitlistRejected(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.profiles.Put(t.Context(), &profiles.TrainerProfile{
		ID: "trainer-1", FirstName: "Dana", WaitlistOpen: false,
	}))

	w := env.do(t, "POST", "/trainers/trainer-1/waitlist", "client-1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJoinWaitlist_MarksDirectoryCard(t *testing.T) {
	env := newTestEnv(t)
	seedTrainer(t, env, "trainer-1", "Dana", "Whitfield")

	w := env.do(t, "POST", "/trainers/trainer-1/waitlist", "client-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	card := decode[datatypes.TrainerCard](t, env.do(t, "GET", "/trainers/trainer-1", "client-1", nil))
	assert.True(t, card.OnWaitlist)
}
