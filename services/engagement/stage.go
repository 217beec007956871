// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engagement implements the client–trainer engagement lifecycle.
//
// Every client/trainer pair has at most one engagement record whose stage
// walks (loosely) along the progression below. Sequencing is advisory:
// the data layer accepts any stage from any stage, and callers own the
// ordering. Two side branches, declined and declined_dismissed, sit
// outside the progression entirely.
//
//	browsing ─► liked ─► shortlisted ─► getting_to_know_your_coach
//	    ─► discovery_in_progress ─► discovery_completed ─► agreed
//	    ─► payment_pending ─► active_client
//
//	(side branch) declined ─► declined_dismissed
package engagement

import "fmt"

// Stage values mirror the engagement_stage enum in the hosted store.
type Stage string

const (
	StageBrowsing            Stage = "browsing"
	StageLiked               Stage = "liked"
	StageShortlisted         Stage = "shortlisted"
	StageGettingToKnow       Stage = "getting_to_know_your_coach"
	StageDiscoveryInProgress Stage = "discovery_in_progress"
	StageDiscoveryCompleted  Stage = "discovery_completed"
	StageAgreed              Stage = "agreed"
	StagePaymentPending      Stage = "payment_pending"
	StageActiveClient        Stage = "active_client"

	// Side branches. Not part of the ordered progression: StageIndex
	// reports -1 for both, so content gating never unlocks through them.
	StageDeclined          Stage = "declined"
	StageDeclinedDismissed Stage = "declined_dismissed"
)

// Legacy stage names still present in older rows. Normalized at the
// storage boundary so nothing past the store ever sees them.
const (
	legacyStageMatched  = "matched"
	legacyStageWaitlist = "waitlist"
)

// progression is the primary ordered stage list. declined and
// declined_dismissed are deliberately absent.
var progression = []Stage{
	StageBrowsing,
	StageLiked,
	StageShortlisted,
	StageGettingToKnow,
	StageDiscoveryInProgress,
	StageDiscoveryCompleted,
	StageAgreed,
	StagePaymentPending,
	StageActiveClient,
}

var progressionIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(progression))
	for i, s := range progression {
		m[s] = i
	}
	return m
}()

// NormalizeStage maps a raw stored value onto the canonical enum.
//
// Legacy rows may still carry "matched" (now agreed) or "waitlist"
// (now browsing). This is the single place alias-awareness lives;
// callers past the storage boundary only ever see canonical values.
func NormalizeStage(raw string) (Stage, error) {
	switch raw {
	case legacyStageMatched:
		return StageAgreed, nil
	case legacyStageWaitlist:
		return StageBrowsing, nil
	}
	s := Stage(raw)
	if s.Valid() {
		return s, nil
	}
	return "", fmt.Errorf("unknown engagement stage %q", raw)
}

// Valid reports whether s is one of the canonical enum values.
// Legacy aliases are not valid; run them through NormalizeStage first.
func (s Stage) Valid() bool {
	if _, ok := progressionIndex[s]; ok {
		return true
	}
	return s == StageDeclined || s == StageDeclinedDismissed
}

// StageIndex returns the position of s in the primary progression,
// or -1 when s is not part of it (declined, declined_dismissed,
// or an unknown value).
func StageIndex(s Stage) int {
	if i, ok := progressionIndex[s]; ok {
		return i
	}
	return -1
}

// CanViewContent reports whether a relationship at stage current has
// progressed far enough to see content gated behind requiredStage.
//
// The comparison uses positions in the primary progression only. A
// required stage outside the progression has no position, so gating
// against declined or declined_dismissed is false from every stage.
func CanViewContent(current, required Stage) bool {
	ri := StageIndex(required)
	if ri < 0 {
		return false
	}
	return StageIndex(current) >= ri
}

// Stages returns the primary progression in order. The returned slice
// is a copy; mutating it does not affect gating.
func Stages() []Stage {
	out := make([]Stage, len(progression))
	copy(out, progression)
	return out
}
