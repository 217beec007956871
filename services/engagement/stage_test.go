// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStage(t *testing.T) {
	t.Run("canonical values pass through", func(t *testing.T) {
		for _, s := range Stages() {
			got, err := NormalizeStage(string(s))
			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
		got, err := NormalizeStage("declined")
		require.NoError(t, err)
		assert.Equal(t, StageDeclined, got)
	})

	t.Run("legacy matched maps to agreed", func(t *testing.T) {
		got, err := NormalizeStage("matched")
		require.NoError(t, err)
		assert.Equal(t, StageAgreed, got)
	})

	t.Run("legacy waitlist maps to browsing", func(t *testing.T) {
		got, err := NormalizeStage("waitlist")
		require.NoError(t, err)
		assert.Equal(t, StageBrowsing, got)
	})

	t.Run("unknown value is rejected", func(t *testing.T) {
		_, err := NormalizeStage("superfan")
		assert.Error(t, err)
	})
}

func TestStageIndex(t *testing.T) {
	assert.Equal(t, 0, StageIndex(StageBrowsing))
	assert.Equal(t, 8, StageIndex(StageActiveClient))

	// The side branches are never part of the ordered list.
	assert.Equal(t, -1, StageIndex(StageDeclined))
	assert.Equal(t, -1, StageIndex(StageDeclinedDismissed))
	assert.Equal(t, -1, StageIndex(Stage("nonsense")))
}

func TestCanViewContent(t *testing.T) {
	t.Run("ordered comparison over the full progression", func(t *testing.T) {
		stages := Stages()
		for i, current := range stages {
			for j, required := range stages {
				got := CanViewContent(current, required)
				assert.Equalf(t, i >= j, got, "current=%s required=%s", current, required)
			}
		}
	})

	t.Run("gating against declined stages is always false", func(t *testing.T) {
		for _, current := range Stages() {
			assert.False(t, CanViewContent(current, StageDeclined))
			assert.False(t, CanViewContent(current, StageDeclinedDismissed))
		}
	})

	t.Run("declined trainers unlock nothing", func(t *testing.T) {
		for _, required := range Stages() {
			assert.False(t, CanViewContent(StageDeclined, required))
			assert.False(t, CanViewContent(StageDeclinedDismissed, required))
		}
	})
}
