// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	db, err := storagebadger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(db, clock), clock
}

func TestBook(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	call, err := svc.Book(ctx, "c1", "t1", clock.now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, CallRequested, call.Status)

	got, err := svc.Get(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, call.ID, got.ID)

	_, err = svc.Book(ctx, "c1", "t1", clock.now.Add(-time.Hour))
	assert.Error(t, err)
	_, err = svc.Book(ctx, "", "t1", clock.now.Add(time.Hour))
	assert.Error(t, err)
}

func TestStatusTransitions(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	call, err := svc.Book(ctx, "c1", "t1", clock.now.Add(48*time.Hour))
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, CallConfirmed, confirmed.Status)

	completed, err := svc.Complete(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, CallCompleted, completed.Status)

	// Completed is terminal.
	_, err = svc.Cancel(ctx, call.ID)
	assert.Error(t, err)
	_, err = svc.Confirm(ctx, call.ID)
	assert.Error(t, err)

	// Requested cannot jump straight to completed.
	other, err := svc.Book(ctx, "c1", "t2", clock.now.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.Complete(ctx, other.ID)
	assert.Error(t, err)
}

type countingEmailer struct{ sent int }

func (e *countingEmailer) SendCallReminder(context.Context, *DiscoveryCall) error {
	e.sent++
	return nil
}

func TestSweep(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	cfg := DefaultSweepConfig()

	// A confirmed call 12h out: reminder due.
	soon, err := svc.Book(ctx, "c1", "t1", clock.now.Add(12*time.Hour))
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, soon.ID)
	require.NoError(t, err)

	// A confirmed call 3 days out: outside the reminder window.
	far, err := svc.Book(ctx, "c1", "t2", clock.now.Add(72*time.Hour))
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, far.ID)
	require.NoError(t, err)

	// A request that has sat for 4 days: expired.
	stale, err := svc.Book(ctx, "c2", "t1", clock.now.Add(200*time.Hour))
	require.NoError(t, err)
	staleRec, err := svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	staleRec.CreatedAt = clock.now.Add(-96 * time.Hour)
	require.NoError(t, svc.put(staleRec))

	emailer := &countingEmailer{}
	res, err := svc.Sweep(ctx, cfg, emailer, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemindersSent)
	assert.Equal(t, 1, res.CallsExpired)
	assert.Equal(t, 1, emailer.sent)

	got, err := svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, CallExpired, got.Status)

	t.Run("second pass is a no-op", func(t *testing.T) {
		res, err := svc.Sweep(ctx, cfg, emailer, nil)
		require.NoError(t, err)
		assert.Zero(t, res.RemindersSent)
		assert.Zero(t, res.CallsExpired)
		assert.Equal(t, 1, emailer.sent)
	})
}

func TestScheduler_StartStop(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewScheduler(svc, DefaultSweepConfig(), nil, 5*time.Millisecond, nil)
	sched.Start()
	time.Sleep(20 * time.Millisecond)
	sched.Stop()
	// Stop is idempotent.
	sched.Stop()
}

func TestScheduler_ReportsSweepResults(t *testing.T) {
	svc, _ := newTestService(t)
	sched := NewScheduler(svc, DefaultSweepConfig(), nil, 5*time.Millisecond, nil)

	results := make(chan SweepResult, 1)
	sched.OnResult = func(res SweepResult, err error) {
		require.NoError(t, err)
		select {
		case results <- res:
		default:
		}
	}
	sched.Start()
	defer sched.Stop()

	select {
	case res := <-results:
		assert.Zero(t, res.CallsExpired)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep result never reported")
	}
}

func TestListByClient(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, "c1", "t1", clock.now.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.Book(ctx, "c1", "t2", clock.now.Add(2*time.Hour))
	require.NoError(t, err)
	_, err = svc.Book(ctx, "c2", "t1", clock.now.Add(3*time.Hour))
	require.NoError(t, err)

	calls, err := svc.ListByClient(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}
