// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engagement

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Not-Another-Coach/nac-platform/services/engagement/disclosure"
)

// VisibilityState is the disclosure fidelity applied to a piece of
// trainer content for a given client. It is derived per render, never
// persisted.
type VisibilityState string

const (
	VisibilityHidden  VisibilityState = "hidden"
	VisibilityBlurred VisibilityState = "blurred"
	VisibilityVisible VisibilityState = "visible"
)

// ContentKind names the trainer content types with independent
// disclosure thresholds.
type ContentKind string

const (
	ContentName         ContentKind = "name"
	ContentGallery      ContentKind = "gallery"
	ContentTestimonials ContentKind = "testimonials"
)

// NameLevel is the fidelity at which a trainer's name is rendered.
type NameLevel string

const (
	NameAnonymous NameLevel = "anonymous"  // stable pseudonym
	NameFirst     NameLevel = "first_name" // first name only
	NamePartial   NameLevel = "partial"    // first name + last initial
	NameFull      NameLevel = "full"       // full name
)

// TrainerIdentity is the minimal identity surface the resolver needs.
// All fields may be empty; the resolver falls back to a pseudonym when
// no name can be derived at any level.
type TrainerIdentity struct {
	ID          string
	FirstName   string
	LastName    string
	DisplayName string
}

// disclosurePolicyFile mirrors disclosure_policy.yaml.
type disclosurePolicyFile struct {
	NameLevels        map[string]NameLevel        `yaml:"name_levels"`
	ContentThresholds map[string]contentThreshold `yaml:"content_thresholds"`
}

type contentThreshold struct {
	Blurred Stage `yaml:"blurred"`
	Visible Stage `yaml:"visible"`
}

// Resolver derives visibility states and display names from engagement
// stages, following a fixed priority order:
//
//  1. An explicit override of visible always wins and shows full content.
//  2. Stage shortlisted forces hidden/anonymized display. Shortlisting
//     does not unlock content by itself even though it sits later in the
//     progression than liked. Intentional; preserved verbatim.
//  3. Overrides blurred and hidden map to partial and anonymized display.
//  4. Otherwise the stage-indexed defaults from the embedded policy apply.
type Resolver struct {
	nameLevels map[Stage]NameLevel
	thresholds map[ContentKind]contentThreshold
}

// NewResolver parses the embedded disclosure policy. It returns an error
// if the policy is malformed or references an unknown stage.
func NewResolver() (*Resolver, error) {
	var file disclosurePolicyFile
	if err := yaml.Unmarshal(disclosure.ProgressiveDisclosurePolicy, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded disclosure policy: %w", err)
	}

	r := &Resolver{
		nameLevels: make(map[Stage]NameLevel, len(file.NameLevels)),
		thresholds: make(map[ContentKind]contentThreshold, len(file.ContentThresholds)),
	}
	for raw, level := range file.NameLevels {
		stage, err := NormalizeStage(raw)
		if err != nil {
			return nil, fmt.Errorf("disclosure policy name_levels: %w", err)
		}
		switch level {
		case NameAnonymous, NameFirst, NamePartial, NameFull:
		default:
			return nil, fmt.Errorf("disclosure policy: unknown name level %q", level)
		}
		r.nameLevels[stage] = level
	}
	for kind, th := range file.ContentThresholds {
		if StageIndex(th.Blurred) < 0 || StageIndex(th.Visible) < 0 {
			return nil, fmt.Errorf("disclosure policy: thresholds for %q must sit in the primary progression", kind)
		}
		r.thresholds[ContentKind(kind)] = th
	}
	return r, nil
}

// Resolve maps an engagement stage (plus an optional explicit override)
// to the visibility state for one content kind.
func (r *Resolver) Resolve(stage Stage, override *VisibilityState, kind ContentKind) VisibilityState {
	if override != nil && *override == VisibilityVisible {
		return VisibilityVisible
	}
	if stage == StageShortlisted {
		return VisibilityHidden
	}
	if override != nil {
		return *override
	}
	th, ok := r.thresholds[kind]
	if !ok {
		// Name has no threshold entry; its fidelity comes from NameLevelFor.
		if CanViewContent(stage, StageLiked) {
			return VisibilityVisible
		}
		return VisibilityHidden
	}
	switch {
	case CanViewContent(stage, th.Visible):
		return VisibilityVisible
	case CanViewContent(stage, th.Blurred):
		return VisibilityBlurred
	default:
		return VisibilityHidden
	}
}

// NameLevelFor returns the name fidelity for a stage under the same
// priority order as Resolve.
func (r *Resolver) NameLevelFor(stage Stage, override *VisibilityState) NameLevel {
	if override != nil && *override == VisibilityVisible {
		return NameFull
	}
	if stage == StageShortlisted {
		return NameAnonymous
	}
	if override != nil {
		switch *override {
		case VisibilityBlurred:
			return NamePartial
		case VisibilityHidden:
			return NameAnonymous
		}
	}
	if level, ok := r.nameLevels[stage]; ok {
		return level
	}
	return NameAnonymous
}

// DisplayName renders the trainer's name at the fidelity the stage and
// override allow. When no name can be derived at the resolved level the
// stable pseudonym for the trainer's id is returned instead.
func (r *Resolver) DisplayName(t TrainerIdentity, stage Stage, override *VisibilityState) string {
	switch r.NameLevelFor(stage, override) {
	case NameFirst:
		if t.FirstName != "" {
			return t.FirstName
		}
		if t.DisplayName != "" {
			return firstWord(t.DisplayName)
		}
	case NamePartial:
		if t.FirstName != "" && t.LastName != "" {
			return fmt.Sprintf("%s %s.", t.FirstName, initial(t.LastName))
		}
		if t.FirstName != "" {
			return t.FirstName
		}
		if t.DisplayName != "" {
			return firstWord(t.DisplayName)
		}
	case NameFull:
		if t.FirstName != "" && t.LastName != "" {
			return t.FirstName + " " + t.LastName
		}
		if t.DisplayName != "" {
			return t.DisplayName
		}
		if t.FirstName != "" {
			return t.FirstName
		}
	}
	return AnonymousID(t.ID)
}

// AnonymousID derives a stable pseudonym from a trainer id. The same id
// always yields the same pseudonym; collisions across different ids are
// acceptable and not corrected.
func AnonymousID(trainerID string) string {
	sum := sha256.Sum256([]byte(trainerID))
	return "Coach " + strings.ToUpper(hex.EncodeToString(sum[:3]))
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// initial returns the upper-cased first rune, not first byte, so
// multi-byte names keep a valid initial.
func initial(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}
