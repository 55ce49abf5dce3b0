package eventbus

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/fastauction/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := New(testLogger())
	bus.Start()
	defer bus.Stop()

	sub := &Subscriber{ID: "s1", Messages: make(chan []byte, 10), Done: make(chan struct{})}
	bus.Subscribe(7, sub)
	defer bus.Unsubscribe(7, sub)

	bus.Publish(domain.NominatorChangedEvent{DraftID: 7, NominatorRosterID: 2, NominationNumber: 1, NominationDeadline: time.Now()})

	select {
	case msg := <-sub.Messages:
		assert.Contains(t, string(msg), "auction:nominator_changed")
	case <-time.After(time.Second):
		t.Fatal("expected message was not delivered")
	}
}

func TestBus_SubscriberOnAnotherDraftDoesNotReceive(t *testing.T) {
	bus := New(testLogger())
	bus.Start()
	defer bus.Stop()

	sub := &Subscriber{ID: "s1", Messages: make(chan []byte, 10), Done: make(chan struct{})}
	bus.Subscribe(7, sub)
	defer bus.Unsubscribe(7, sub)

	bus.Publish(domain.DraftCompletedEvent{DraftID: 9})

	select {
	case msg := <-sub.Messages:
		t.Fatalf("unexpected message for a different draft: %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_Stats(t *testing.T) {
	bus := New(testLogger())
	sub := &Subscriber{ID: "s1", Messages: make(chan []byte, 1), Done: make(chan struct{})}
	bus.Subscribe(7, sub)

	stats := bus.Stats()
	require.Equal(t, 1, stats.TotalSubscribers)
	require.Len(t, stats.Drafts, 1)
	assert.Equal(t, int64(7), stats.Drafts[0].DraftID)
}
