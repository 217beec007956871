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

	"github.com/Not-Another-Coach/nac-platform/services/payments"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

const payoutReviewer = "nacctl-operator"

func openPayments() (*payments.Service, func()) {
	db, err := storagebadger.OpenWithPath(config.DataDir)
	if err != nil {
		log.Fatalf("could not open the badger store at %s: %v", config.DataDir, err)
	}
	return payments.NewService(db, nil), func() { _ = db.Close() }
}

func runPayoutApprove(cmd *cobra.Command, args []string) {
	svc, closeDB := openPayments()
	defer closeDB()

	p, err := svc.ApprovePayout(context.Background(), args[0], payoutReviewer)
	if err != nil {
		log.Fatalf("approve failed: %v", err)
	}
	fmt.Printf("payout %s approved: trainer %s, %d cents\n", p.ID, p.TrainerID, p.AmountCents)
}

func runPayoutHold(cmd *cobra.Command, args []string) {
	svc, closeDB := openPayments()
	defer closeDB()

	p, err := svc.HoldPayout(context.Background(), args[0], payoutReviewer, payoutNote)
	if err != nil {
		log.Fatalf("hold failed: %v", err)
	}
	fmt.Printf("payout %s held: %s\n", p.ID, p.HoldReason)
}
