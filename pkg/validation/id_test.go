// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		// Valid identifiers
		{"simple", "client1", false},
		{"single char", "a", false},
		{"uuid style", "550e8400-e29b-41d4-a716-446655440000", false},
		{"underscores", "trainer_42", false},
		{"mixed case", "ClientA", false},

		// Invalid identifiers - injection attempts
		{"empty", "", true},
		{"key prefix injection", "abc/engagement", true},
		{"path traversal", "../secrets", true},
		{"null byte", "abc\x00def", true},
		{"newline", "abc\ndef", true},
		{"spaces", "client 1", true},
		{"starts with hyphen", "-client", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"special chars", "client@home", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIDs(t *testing.T) {
	tests := []struct {
		name    string
		ids     []string
		wantErr bool
	}{
		{"all valid", []string{"a", "b-2", "c_3"}, false},
		{"one invalid", []string{"a", "no good", "c"}, true},
		{"all invalid", []string{"", "../x"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIDs(tt.ids)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIDs(%v) error = %v, wantErr %v", tt.ids, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	got, err := SanitizeID("  trainer-7  ")
	if err != nil {
		t.Fatalf("SanitizeID() error = %v", err)
	}
	if got != "trainer-7" {
		t.Errorf("SanitizeID() = %q, want %q", got, "trainer-7")
	}

	if _, err := SanitizeID("  bad id  "); err == nil {
		t.Error("SanitizeID() should reject ids with inner spaces")
	}
}

func TestRegisterStringRule(t *testing.T) {
	v := validator.New()
	err := RegisterStringRule(v, "onlyfoo", func(s string) bool { return s == "foo" })
	if err != nil {
		t.Fatalf("RegisterStringRule() error = %v", err)
	}

	type req struct {
		Value string `validate:"onlyfoo"`
	}

	if err := v.Struct(req{Value: "foo"}); err != nil {
		t.Errorf("expected foo to pass, got %v", err)
	}
	if err := v.Struct(req{Value: "bar"}); err == nil {
		t.Error("expected bar to fail validation")
	}

	if err := RegisterStringRule(nil, "x", func(string) bool { return true }); err == nil {
		t.Error("expected error for nil engine")
	}
}
