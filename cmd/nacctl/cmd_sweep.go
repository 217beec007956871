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
	"time"

	"github.com/spf13/cobra"

	"github.com/Not-Another-Coach/nac-platform/pkg/logging"
	"github.com/Not-Another-Coach/nac-platform/services/scheduling"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

func runSweep(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  config.LogDir,
		Service: "nacctl",
	})
	defer logger.Close()

	db, err := storagebadger.OpenWithPath(config.DataDir)
	if err != nil {
		log.Fatalf("could not open the badger store at %s: %v", config.DataDir, err)
	}
	defer db.Close()

	cfg := scheduling.DefaultSweepConfig()
	if h := config.Sweep.ReminderWindowHours; h > 0 {
		cfg.ReminderWindow = time.Duration(h) * time.Hour
	}
	if h := config.Sweep.RequestTTLHours; h > 0 {
		cfg.RequestTTL = time.Duration(h) * time.Hour
	}

	svc := scheduling.NewService(db, nil)
	res, err := svc.Sweep(context.Background(), cfg,
		scheduling.LogEmailer{Logger: logger.Slog()}, logger.Slog())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	fmt.Printf("sweep complete: %d reminders sent, %d requests expired\n",
		res.RemindersSent, res.CallsExpired)
}
