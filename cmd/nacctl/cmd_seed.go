// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/Not-Another-Coach/nac-platform/services/profiles"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

// sampleTrainers is the fixed development roster. Seeding past its
// length wraps with numbered IDs.
var sampleTrainers = []profiles.TrainerProfile{
	{
		ID: "trainer-dana", FirstName: "Dana", LastName: "Whitfield",
		Bio:             "Strength and conditioning coach with a powerlifting background.",
		Specializations: []string{"strength", "powerlifting"},
		Certifications:  []string{"CSCS"},
		ExperienceYears: 9, HourlyRate: 85, Rating: 4.9, TotalReviews: 112,
		AcceptingClients: true, WaitlistOpen: false,
	},
	{
		ID: "trainer-sam", FirstName: "Sam", LastName: "Ortiz",
		Bio:             "Mobility and yoga instructor focused on desk workers.",
		Specializations: []string{"yoga", "mobility"},
		ExperienceYears: 6, HourlyRate: 60, Rating: 4.7, TotalReviews: 64,
		AcceptingClients: true, WaitlistOpen: true,
	},
	{
		ID: "trainer-priya", FirstName: "Priya", LastName: "Nair",
		Bio:             "Endurance coach for first-time marathoners.",
		Specializations: []string{"running", "endurance"},
		ExperienceYears: 11, HourlyRate: 95, Rating: 4.8, TotalReviews: 203,
		AcceptingClients: false, WaitlistOpen: true,
	},
	{
		ID: "trainer-marcus", FirstName: "Marcus", LastName: "Lee",
		Bio:             "Nutrition-first body recomposition coaching.",
		Specializations: []string{"nutrition", "strength"},
		Certifications:  []string{"PN1"},
		ExperienceYears: 4, HourlyRate: 55, Rating: 4.4, TotalReviews: 31,
		AcceptingClients: true, WaitlistOpen: false,
	},
	{
		ID: "trainer-elena", FirstName: "Elena", LastName: "Petrova",
		Bio:             "Olympic lifting technique for intermediate lifters.",
		Specializations: []string{"weightlifting", "strength"},
		ExperienceYears: 14, HourlyRate: 120, Rating: 5.0, TotalReviews: 87,
		AcceptingClients: true, WaitlistOpen: true,
	},
}

func runSeed(cmd *cobra.Command, args []string) {
	db, err := storagebadger.OpenWithPath(config.DataDir)
	if err != nil {
		log.Fatalf("could not open the badger store at %s: %v", config.DataDir, err)
	}
	defer db.Close()

	store := profiles.NewStore(db)
	ctx := context.Background()

	created := 0
	for i := 0; i < seedCount; i++ {
		p := sampleTrainers[i%len(sampleTrainers)]
		if i >= len(sampleTrainers) {
			p.ID = fmt.Sprintf("%s-%d", p.ID, i/len(sampleTrainers))
		}
		if err := store.Put(ctx, &p); err != nil {
			log.Fatalf("seeding %s failed: %v", p.ID, err)
		}
		created++
	}

	fmt.Printf("seeded %d trainer profiles\n", created)
}
