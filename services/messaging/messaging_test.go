// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package messaging

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
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	return NewService(db, nil, clock), clock
}

func TestEnsureConversation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	conv, err := svc.EnsureConversation(ctx, "c1", "t1")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)

	again, err := svc.EnsureConversation(ctx, "c1", "t1")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	_, err = svc.EnsureConversation(ctx, "", "t1")
	assert.Error(t, err)
}

func TestAppendAndHistory(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	conv, err := svc.EnsureConversation(ctx, "c1", "t1")
	require.NoError(t, err)

	_, err = svc.Append(ctx, conv, "c1", "hi, interested in strength coaching")
	require.NoError(t, err)
	clock.now = clock.now.Add(time.Minute)
	_, err = svc.Append(ctx, conv, "t1", "great, let's set up a discovery call")
	require.NoError(t, err)

	t.Run("history comes back in send order", func(t *testing.T) {
		msgs, err := svc.Messages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "c1", msgs[0].SenderID)
		assert.Equal(t, "t1", msgs[1].SenderID)
	})

	t.Run("last message time tracks the newest append", func(t *testing.T) {
		got, err := svc.Conversation(ctx, "c1", "t1")
		require.NoError(t, err)
		assert.Equal(t, clock.now, got.LastMessageAt)
	})

	t.Run("non-participants and empty bodies are rejected", func(t *testing.T) {
		_, err := svc.Append(ctx, conv, "someone-else", "hello")
		assert.Error(t, err)
		_, err = svc.Append(ctx, conv, "c1", "   ")
		assert.Error(t, err)
	})
}

func TestUnreadAndMarkRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	conv, err := svc.EnsureConversation(ctx, "c1", "t1")
	require.NoError(t, err)
	_, err = svc.Append(ctx, conv, "c1", "one")
	require.NoError(t, err)
	_, err = svc.Append(ctx, conv, "c1", "two")
	require.NoError(t, err)

	n, err := svc.UnreadCount(ctx, conv.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The sender has nothing unread.
	n, err = svc.UnreadCount(ctx, conv.ID, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.MarkRead(ctx, conv.ID, "t1"))
	require.NoError(t, svc.MarkRead(ctx, conv.ID, "t1")) // idempotent

	n, err = svc.UnreadCount(ctx, conv.ID, "t1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestConversationsForClient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.EnsureConversation(ctx, "c1", "t1")
	require.NoError(t, err)
	_, err = svc.EnsureConversation(ctx, "c1", "t2")
	require.NoError(t, err)
	_, err = svc.EnsureConversation(ctx, "c2", "t1")
	require.NoError(t, err)

	convs, err := svc.ConversationsForClient(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}
