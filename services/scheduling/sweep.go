// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scheduling

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SweepConfig tunes the reminder/expiry sweep.
type SweepConfig struct {
	// ReminderWindow is how far ahead of the scheduled time a reminder
	// goes out for confirmed calls. Default: 24 hours.
	ReminderWindow time.Duration

	// RequestTTL is how long a call may sit in requested before it
	// expires. Default: 72 hours.
	RequestTTL time.Duration
}

// DefaultSweepConfig returns production defaults.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		ReminderWindow: 24 * time.Hour,
		RequestTTL:     72 * time.Hour,
	}
}

// SweepResult reports what one sweep pass did.
type SweepResult struct {
	RemindersSent int
	CallsExpired  int
}

// Sweep is the cron-style pass over all discovery calls: it expires
// stale requests and sends reminders for confirmed calls inside the
// reminder window. It is a read-then-conditionally-write script and is
// idempotent; running it twice in a row does nothing the second time.
//
// Invocation is external (CLI, cron, or the optional Scheduler below);
// the sweep owns no schedule of its own.
func (s *Service) Sweep(ctx context.Context, cfg SweepConfig, emailer Emailer, logger *slog.Logger) (SweepResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := s.clock.Now()
	var res SweepResult

	calls, err := s.list(ctx, func(c *DiscoveryCall) bool {
		return c.Status == CallRequested || c.Status == CallConfirmed
	})
	if err != nil {
		return res, err
	}

	for _, call := range calls {
		switch call.Status {
		case CallRequested:
			if now.Sub(call.CreatedAt) < cfg.RequestTTL {
				continue
			}
			if _, err := s.transition(ctx, call.ID, CallExpired); err != nil {
				logger.Error("failed to expire discovery call", "callId", call.ID, "error", err)
				continue
			}
			res.CallsExpired++

		case CallConfirmed:
			if call.ReminderSentAt != nil {
				continue
			}
			until := call.ScheduledAt.Sub(now)
			if until < 0 || until > cfg.ReminderWindow {
				continue
			}
			if emailer != nil {
				if err := emailer.SendCallReminder(ctx, call); err != nil {
					logger.Error("failed to send call reminder", "callId", call.ID, "error", err)
					continue
				}
			}
			call.ReminderSentAt = &now
			call.UpdatedAt = now
			if err := s.put(call); err != nil {
				logger.Error("failed to mark reminder sent", "callId", call.ID, "error", err)
				continue
			}
			res.RemindersSent++
		}
	}

	logger.Info("discovery call sweep finished",
		"remindersSent", res.RemindersSent, "callsExpired", res.CallsExpired)
	return res, nil
}

// LogEmailer is the stand-in for the external transactional email
// provider: it logs instead of sending.
type LogEmailer struct {
	Logger *slog.Logger
}

func (e LogEmailer) SendCallReminder(_ context.Context, call *DiscoveryCall) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("call reminder",
		"callId", call.ID, "clientId", call.ClientID,
		"trainerId", call.TrainerID, "scheduledAt", call.ScheduledAt)
	return nil
}

// Scheduler runs the sweep on a fixed interval for deployments without
// an external cron. Uses the ticker + done channel pattern for graceful
// shutdown.
type Scheduler struct {
	service *Service
	cfg     SweepConfig
	emailer Emailer
	logger  *slog.Logger

	// OnResult, when set before Start, is invoked after every sweep
	// pass with its result and error. Used for metrics hookup.
	OnResult func(SweepResult, error)

	interval time.Duration
	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// NewScheduler wires a Scheduler. Call Start to begin sweeping and Stop
// to halt it.
func NewScheduler(service *Service, cfg SweepConfig, emailer Emailer, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service:  service,
		cfg:      cfg,
		emailer:  emailer,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the background sweep loop. The first pass runs after
// one interval, not immediately.
func (s *Scheduler) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("discovery call sweep scheduler started", "interval", s.interval)
		for {
			select {
			case <-ticker.C:
				res, err := s.service.Sweep(context.Background(), s.cfg, s.emailer, s.logger)
				if err != nil {
					s.logger.Error("scheduled sweep failed", "error", err)
				}
				if s.OnResult != nil {
					s.OnResult(res, err)
				}
			case <-s.done:
				s.logger.Info("discovery call sweep scheduler stopped")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the current pass to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.stopped
}
