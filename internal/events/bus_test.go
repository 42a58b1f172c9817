package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribePublishDelivers(t *testing.T) {
	b := NewBus()
	_, ch := b.Subscribe()

	b.Publish(Event{Type: TypeGameStarted, GameStarted: &GameStarted{GameID: "g1"}})

	ev := <-ch
	require.Equal(t, TypeGameStarted, ev.Type)
	require.Equal(t, "g1", ev.GameStarted.GameID)
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := NewBus()
	_, a := b.Subscribe()
	_, c := b.Subscribe()

	b.Publish(Event{Type: TypeClockUpdate, ClockUpdate: &ClockUpdate{GameID: "g1"}})

	require.Equal(t, TypeClockUpdate, (<-a).Type)
	require.Equal(t, TypeClockUpdate, (<-c).Type)
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()

	for i := 0; i < subscriberCap+10; i++ {
		b.Publish(Event{Type: TypeClockUpdate, ClockUpdate: &ClockUpdate{GameID: "g1"}})
	}

	require.Len(t, ch, subscriberCap)
	b.Unsubscribe(id)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe()
	b.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok)
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	b := NewBus()
	_, a := b.Subscribe()
	_, c := b.Subscribe()
	b.Close()

	_, okA := <-a
	_, okC := <-c
	require.False(t, okA)
	require.False(t, okC)
}
