package events

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain/entity"
	"minimarket/internal/platform/metrics"
)

func TestSessionHub_DeliversToEverySubscriber(t *testing.T) {
	hub := NewSessionHub(nil)
	a, releaseA := hub.Subscribe(1)
	b, releaseB := hub.Subscribe(1)
	defer releaseA()
	defer releaseB()

	hub.Publish(entity.AuthEvent{Type: entity.AuthSignedIn, UserID: "u1"})

	ea := <-a
	eb := <-b
	assert.Equal(t, entity.AuthSignedIn, ea.Type)
	assert.Equal(t, "u1", eb.UserID)
	assert.False(t, ea.OccurredAt.IsZero())
}

func TestSessionHub_ReleaseClosesStream(t *testing.T) {
	hub := NewSessionHub(nil)
	ch, release := hub.Subscribe(1)

	release()
	release()

	_, ok := <-ch
	assert.False(t, ok)
	assert.NotPanics(t, func() { hub.Publish(entity.AuthEvent{Type: entity.AuthSignedOut, UserID: "u1"}) })
}

func TestSessionHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewSessionHub(nil)
	ch, release := hub.Subscribe(1)
	defer release()

	hub.Publish(entity.AuthEvent{Type: entity.AuthSignedIn, UserID: "u1"})
	hub.Publish(entity.AuthEvent{Type: entity.AuthSignedOut, UserID: "u1"})

	first := <-ch
	assert.Equal(t, entity.AuthSignedIn, first.Type)
	assert.Len(t, ch, 0)
}

func TestSessionHub_CloseReleasesSubscribers(t *testing.T) {
	m := metrics.NewMetricsManager("test")
	hub := NewSessionHub(m)
	ch, release := hub.Subscribe(1)

	hub.Publish(entity.AuthEvent{Type: entity.AuthPasswordUpdated, UserID: "u1"})
	hub.Close()
	release()

	_, ok := <-ch
	require.True(t, ok)
	_, ok = <-ch
	assert.False(t, ok)

	late, _ := hub.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues("password_updated")))
}
