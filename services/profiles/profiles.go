// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package profiles holds the trainer directory: profile CRUD, browse
// filtering with match scoring, and waitlist membership.
//
// Identity fields are raw here. The presentation layer must run them
// through the engagement visibility resolver before showing them to a
// client; nothing in this package gates disclosure.
package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no trainer profile exists for an id.
var ErrNotFound = errors.New("trainer profile not found")

// TrainerProfile is the directory entry for one trainer.
type TrainerProfile struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name,omitempty"`

	Bio             string   `json:"bio,omitempty"`
	Specializations []string `json:"specializations,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	HourlyRate      float64  `json:"hourly_rate"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`

	AcceptingClients bool `json:"accepting_clients"`
	WaitlistOpen     bool `json:"waitlist_open"`

	// Object-store keys for media; resolved to URLs by the media store.
	GalleryKeys     []string `json:"gallery_keys,omitempty"`
	CertificateKeys []string `json:"certificate_keys,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows a directory listing. Zero values mean "no constraint".
type Filter struct {
	Specialization string
	MaxHourlyRate  float64
	MinRating      float64
	AcceptingOnly  bool
}

// Preferences are a client's stated goals, used only for match scoring.
type Preferences struct {
	Specializations []string
	BudgetPerHour   float64
}

// Store persists trainer profiles and waitlist membership in the shared
// BadgerDB instance.
type Store struct {
	db *badgerdb.DB
}

func NewStore(db *badgerdb.DB) *Store {
	return &Store{db: db}
}

const (
	trainerPrefix  = "trainer/"
	waitlistPrefix = "waitlist/"
)

func trainerKey(id string) []byte {
	return []byte(trainerPrefix + id)
}

// Waitlist keys are client-first so one prefix scan yields everything a
// journey recount needs for a client.
func waitlistKey(clientID, trainerID string) []byte {
	return []byte(waitlistPrefix + clientID + "/" + trainerID)
}

func (s *Store) Put(ctx context.Context, p *TrainerProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("trainer profile requires an id")
	}
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode trainer profile: %w", err)
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(trainerKey(p.ID), val)
	})
}

func (s *Store) Get(ctx context.Context, id string) (*TrainerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p *TrainerProfile
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(trainerKey(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			p = &TrainerProfile{}
			return json.Unmarshal(val, p)
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every profile matching the filter, highest rating first.
func (s *Store) List(ctx context.Context, f Filter) ([]*TrainerProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*TrainerProfile
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		prefix := []byte(trainerPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var p TrainerProfile
				if err := json.Unmarshal(val, &p); err != nil {
					return err
				}
				if matchesFilter(&p, f) {
					out = append(out, &p)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func matchesFilter(p *TrainerProfile, f Filter) bool {
	if f.AcceptingOnly && !p.AcceptingClients {
		return false
	}
	if f.MaxHourlyRate > 0 && p.HourlyRate > f.MaxHourlyRate {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	if f.Specialization != "" && !hasSpecialization(p, f.Specialization) {
		return false
	}
	return true
}

func hasSpecialization(p *TrainerProfile, want string) bool {
	for _, s := range p.Specializations {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

// MatchScore rates how well a trainer fits a client's preferences.
// Specialization overlap dominates; budget fit and rating break ties.
func MatchScore(p *TrainerProfile, prefs Preferences) int {
	score := 0
	for _, want := range prefs.Specializations {
		if hasSpecialization(p, want) {
			score += 30
		}
	}
	if prefs.BudgetPerHour > 0 && p.HourlyRate <= prefs.BudgetPerHour {
		score += 15
	}
	score += int(p.Rating * 10)
	return score
}

// JoinWaitlist records that the client joined the trainer's waitlist.
// Joining twice is a no-op.
func (s *Store) JoinWaitlist(ctx context.Context, clientID, trainerID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(at)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		key := waitlistKey(clientID, trainerID)
		if _, err := txn.Get(key); err == nil {
			return nil
		}
		return txn.Set(key, val)
	})
}

// LeaveWaitlist removes the membership. Leaving a waitlist the client is
// not on is a no-op.
func (s *Store) LeaveWaitlist(ctx context.Context, clientID, trainerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(waitlistKey(clientID, trainerID))
	})
}

// OnWaitlist reports whether the client is on the trainer's waitlist.
func (s *Store) OnWaitlist(ctx context.Context, clientID, trainerID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(waitlistKey(clientID, trainerID))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// WaitlistedTrainers returns the set of trainer ids whose waitlists the
// client is on. Used by journey recounts, which are total rather than
// incremental.
func (s *Store) WaitlistedTrainers(ctx context.Context, clientID string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	prefix := []byte(waitlistPrefix + clientID + "/")
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			out[strings.TrimPrefix(key, string(prefix))] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
