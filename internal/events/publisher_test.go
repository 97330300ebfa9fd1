package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePublisherStampsEvents(t *testing.T) {
	sink := NewMemoryStore()
	pub := NewStorePublisher(sink)

	err := pub.Emit(context.Background(), Event{Topic: TopicProjectRegistered, Actor: "alice"})
	require.NoError(t, err)

	got := sink.ByTopic(TopicProjectRegistered)
	require.Len(t, got, 1)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.Equal(t, "alice", got[0].Actor.String())
}

func TestChannelPublisherNeverBlocks(t *testing.T) {
	inbox := make(chan Event, 1)
	pub := NewChannelPublisher(inbox)

	require.NoError(t, pub.Emit(context.Background(), Event{Topic: TopicFeePaid}))
	// The inbox is full now; the second emit drops instead of blocking.
	require.NoError(t, pub.Emit(context.Background(), Event{Topic: TopicFeePaid}))
	assert.Len(t, inbox, 1)
}

func TestWorkerDrainsToStore(t *testing.T) {
	sink := NewMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(sink, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	pub := NewChannelPublisher(inbox)
	require.NoError(t, pub.Emit(ctx, Event{Topic: TopicAdminAdded}))
	require.NoError(t, pub.Emit(ctx, Event{Topic: TopicAdminRemoved}))

	require.Eventually(t, func() bool {
		return len(sink.All()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
