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

	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	engstore "github.com/Not-Another-Coach/nac-platform/services/engagement/store"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

func runJourney(cmd *cobra.Command, args []string) {
	db, err := storagebadger.OpenWithPath(config.DataDir)
	if err != nil {
		log.Fatalf("could not open the badger store at %s: %v", config.DataDir, err)
	}
	defer db.Close()

	ctx := context.Background()
	svc := engagement.NewService(engstore.NewBadgerStore(db), nil, nil)
	dir := profiles.NewStore(db)

	sess := engagement.Session{ClientID: clientID}
	records := svc.Relationships(ctx, sess)

	waitlists, err := dir.WaitlistedTrainers(ctx, clientID)
	if err != nil {
		log.Fatalf("waitlist lookup failed: %v", err)
	}

	rels := make([]engagement.Relationship, 0, len(records))
	for _, rec := range records {
		rels = append(rels, engagement.Relationship{
			TrainerID:  rec.TrainerID,
			Stage:      rec.Stage,
			OnWaitlist: waitlists[rec.TrainerID],
		})
	}

	counts := engagement.JourneyCounts(rels)
	fmt.Printf("journey for %s (%d relationships)\n", clientID, len(rels))
	for _, bucket := range engagement.Buckets() {
		fmt.Printf("  %-12s %d\n", bucket, counts[bucket])
		for _, trainerID := range engagement.TrainersForBucket(rels, bucket) {
			fmt.Printf("    - %s\n", trainerID)
		}
	}
}
