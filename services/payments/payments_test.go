// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package payments

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
	clock := &fakeClock{now: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(db, clock), clock
}

func TestCreatePlan(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, "c1", "t1", 100000, 3, clock.now)
	require.NoError(t, err)
	require.Len(t, plan.Installments, 3)

	// 100000 / 3 leaves one remainder cent on the first installment.
	assert.Equal(t, int64(33334), plan.Installments[0].AmountCents)
	assert.Equal(t, int64(33333), plan.Installments[1].AmountCents)
	assert.Equal(t, int64(33333), plan.Installments[2].AmountCents)
	assert.Equal(t, clock.now.AddDate(0, 2, 0), plan.Installments[2].DueAt)
	assert.False(t, plan.Completed())

	_, err = svc.CreatePlan(ctx, "c1", "t1", 0, 3, clock.now)
	assert.Error(t, err)
	_, err = svc.CreatePlan(ctx, "", "t1", 1000, 1, clock.now)
	assert.Error(t, err)
}

func TestRecordPayment(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, "c1", "t1", 60000, 2, clock.now)
	require.NoError(t, err)

	got, done, err := svc.RecordPayment(ctx, plan.ID, 0)
	require.NoError(t, err)
	assert.False(t, done)
	firstPaid := *got.Installments[0].PaidAt

	t.Run("recording twice keeps the first timestamp", func(t *testing.T) {
		clock.now = clock.now.Add(time.Hour)
		got, done, err := svc.RecordPayment(ctx, plan.ID, 0)
		require.NoError(t, err)
		assert.False(t, done)
		assert.Equal(t, firstPaid, *got.Installments[0].PaidAt)
	})

	t.Run("final installment completes the plan", func(t *testing.T) {
		got, done, err := svc.RecordPayment(ctx, plan.ID, 1)
		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, got.Completed())
	})

	t.Run("out of range installment", func(t *testing.T) {
		_, _, err := svc.RecordPayment(ctx, plan.ID, 5)
		assert.Error(t, err)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, _, err := svc.RecordPayment(ctx, "nope", 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPayoutApproval(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	start := clock.now.AddDate(0, -1, 0)
	end := clock.now.AddDate(0, 0, -1)
	p, err := svc.OpenPayoutPeriod(ctx, "t1", start, end, 250000)
	require.NoError(t, err)
	assert.Equal(t, PayoutPending, p.Status)

	t.Run("cannot approve before the period ends", func(t *testing.T) {
		open, err := svc.OpenPayoutPeriod(ctx, "t1", clock.now, clock.now.AddDate(0, 1, 0), 1000)
		require.NoError(t, err)
		_, err = svc.ApprovePayout(ctx, open.ID, "admin-1")
		assert.Error(t, err)
	})

	t.Run("approve a finished pending period", func(t *testing.T) {
		got, err := svc.ApprovePayout(ctx, p.ID, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, PayoutApproved, got.Status)
		assert.Equal(t, "admin-1", got.ReviewedBy)
		require.NotNil(t, got.ReviewedAt)

		// Only pending periods can be approved or held.
		_, err = svc.ApprovePayout(ctx, p.ID, "admin-2")
		assert.Error(t, err)
		_, err = svc.HoldPayout(ctx, p.ID, "admin-2", "dup")
		assert.Error(t, err)
	})

	t.Run("hold records a reason", func(t *testing.T) {
		p2, err := svc.OpenPayoutPeriod(ctx, "t2", start, end, 90000)
		require.NoError(t, err)
		got, err := svc.HoldPayout(ctx, p2.ID, "admin-1", "chargeback under review")
		require.NoError(t, err)
		assert.Equal(t, PayoutHeld, got.Status)
		assert.Equal(t, "chargeback under review", got.HoldReason)
	})
}

func TestFakeProcessor(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	plan, err := svc.CreatePlan(ctx, "c1", "t1", 1000, 1, clock.now)
	require.NoError(t, err)

	var proc Processor = FakeProcessor{}
	url, err := proc.CreateCheckout(ctx, plan, 0)
	require.NoError(t, err)
	assert.Contains(t, url, plan.ID)
	_, err = proc.CreateCheckout(ctx, plan, 9)
	assert.Error(t, err)

	payload := []byte(`{"plan_id":"` + plan.ID + `","installment_idx":0}`)
	planID, idx, err := proc.VerifyWebhookEvent(payload, fakeSignature)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, planID)
	assert.Zero(t, idx)

	_, _, err = proc.VerifyWebhookEvent(payload, "wrong")
	assert.Error(t, err)
}
