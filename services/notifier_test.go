package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collection-service/models"
	"collection-service/store"
)

func TestNotifierRecordsTransitions(t *testing.T) {
	s := store.NewStore(nil)
	notifier := NewNotifier(nil, nil)
	s.Subscribe(notifier.OnTransition)
	ctx := context.Background()

	req := createCollection(t, s, "u1", "plastic", nil)
	_, err := s.ApplyTransition(ctx, req.ID, models.Transition{
		Kind:          models.TransitionAssign,
		CollectorID:   "c1",
		CollectorName: "Ana",
		EstimatedTime: "30 minutes",
	})
	require.NoError(t, err)
	_, err = s.ApplyTransition(ctx, req.ID, models.Transition{Kind: models.TransitionComplete})
	require.NoError(t, err)

	feed := notifier.ListByUser("u1")
	require.Len(t, feed, 2)

	// Newest first.
	assert.Equal(t, models.NotificationCollectionCompleted, feed[0].Type)
	assert.Equal(t, models.NotificationCollectorAssigned, feed[1].Type)
	assert.Equal(t, req.ID, feed[0].CollectionID)
	assert.Contains(t, feed[1].Message, "Ana")
	assert.Contains(t, feed[1].Message, "30 minutes")
	assert.False(t, feed[0].IsRead)

	assert.Empty(t, notifier.ListByUser("u2"))
}

func TestNotifierMarkRead(t *testing.T) {
	s := store.NewStore(nil)
	notifier := NewNotifier(nil, nil)
	s.Subscribe(notifier.OnTransition)
	ctx := context.Background()

	req := createCollection(t, s, "u1", "glass", nil)
	_, err := s.ApplyTransition(ctx, req.ID, models.Transition{Kind: models.TransitionCancel, Notes: "changed my mind"})
	require.NoError(t, err)

	feed := notifier.ListByUser("u1")
	require.Len(t, feed, 1)
	assert.Equal(t, models.NotificationStatusUpdate, feed[0].Type)

	// Another user cannot mark it read.
	err = notifier.MarkRead(ctx, feed[0].ID, "u2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, notifier.MarkRead(ctx, feed[0].ID, "u1"))
	assert.True(t, notifier.ListByUser("u1")[0].IsRead)
}
