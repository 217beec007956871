// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	clientID    string
	payoutNote  string
	seedCount   int

	rootCmd = &cobra.Command{
		Use:   "nacctl",
		Short: "Operations CLI for the Not Another Coach platform",
		Long: `nacctl runs maintenance and back office tasks against the
platform data store: discovery call sweeps, trainer seeding,
journey inspection, and payout review.`,
	}

	// --- Maintenance ---
	sweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "Run one discovery-call sweep (expire stale requests, send due reminders)",
		Run:   runSweep, // Defined in cmd_sweep.go
	}

	// --- Development data ---
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the directory with sample trainer profiles",
		Run:   runSeed, // Defined in cmd_seed.go
	}

	// --- Inspection ---
	journeyCmd = &cobra.Command{
		Use:   "journey",
		Short: "Print a client's journey bucket counts",
		Run:   runJourney, // Defined in cmd_journey.go
	}

	// --- Back office ---
	payoutCmd = &cobra.Command{
		Use:   "payout",
		Short: "Review trainer payout periods",
	}
	payoutApproveCmd = &cobra.Command{
		Use:   "approve [periodId]",
		Short: "Approve a pending payout period",
		Args:  cobra.ExactArgs(1),
		Run:   runPayoutApprove, // Defined in cmd_payout.go
	}
	payoutHoldCmd = &cobra.Command{
		Use:   "hold [periodId]",
		Short: "Hold a pending payout period with a reason",
		Args:  cobra.ExactArgs(1),
		Run:   runPayoutHold, // Defined in cmd_payout.go
	}
)

func init() {
	journeyCmd.Flags().StringVar(&clientID, "client", "", "client ID to inspect")
	_ = journeyCmd.MarkFlagRequired("client")

	seedCmd.Flags().IntVar(&seedCount, "count", 5, "number of sample trainers to create")

	payoutHoldCmd.Flags().StringVar(&payoutNote, "reason", "", "why the payout is held")
	_ = payoutHoldCmd.MarkFlagRequired("reason")

	payoutCmd.AddCommand(payoutApproveCmd, payoutHoldCmd)
	rootCmd.AddCommand(sweepCmd, seedCmd, journeyCmd, payoutCmd)
}
