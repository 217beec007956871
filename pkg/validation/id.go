// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// database keys, file paths, or URL segments. Using these validators prevents
// injection attacks (key-prefix injection, path traversal).
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// idPattern matches valid client and trainer identifiers.
// Allows: letters, digits, hyphens (UUID style), underscores
// Max length: 64 characters
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// ValidateID validates a client or trainer identifier before it is used
// in a database key or URL path.
//
// Valid identifiers:
//   - 1-64 characters
//   - Letters A-Z, a-z
//   - Digits 0-9
//   - Hyphens (-) for UUID-style IDs
//   - Underscores (_)
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateID(clientID); err != nil {
//	    return fmt.Errorf("invalid client id: %w", err)
//	}
//	// Safe to use as a key segment
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}

	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id format: %q (must be 1-64 alphanumeric chars, hyphens, or underscores)", id)
	}

	return nil
}

// ValidateIDs validates multiple identifiers.
// Returns an error listing all invalid identifiers if any fail validation.
func ValidateIDs(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid ids: %v", invalid)
	}
	return nil
}

// SanitizeID trims and validates an identifier.
// Returns the trimmed identifier if valid, or an error if invalid.
func SanitizeID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if err := ValidateID(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// RegisterStringRule attaches a named rule to a validator engine so
// request structs can use it in binding tags, e.g.
// `binding:"required,engagementstage"`.
//
// The accept function receives the field value and reports whether it
// is allowed. Registration errors only occur for empty rule names.
func RegisterStringRule(v *validator.Validate, name string, accept func(string) bool) error {
	if v == nil {
		return fmt.Errorf("validator engine is nil")
	}
	return v.RegisterValidation(name, func(fl validator.FieldLevel) bool {
		return accept(fl.Field().String())
	})
}
