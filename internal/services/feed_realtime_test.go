package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// overlapConn flags any concurrent WriteJSON calls, which the real
// gorilla/websocket connection would panic on.
type overlapConn struct {
	inFlight int32
	overlaps int32
	writes   int32
}

func (c *overlapConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.StoreInt32(&c.overlaps, 1)
	}
	time.Sleep(2 * time.Millisecond)
	atomic.AddInt32(&c.inFlight, -1)
	atomic.AddInt32(&c.writes, 1)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func waitForWrites(t *testing.T, conn *overlapConn, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&conn.writes) < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d writes, got %d", want, atomic.LoadInt32(&conn.writes))
		}
		time.Sleep(time.Millisecond)
	}
}

func TestFanOutSerializesWritesPerConnection(t *testing.T) {
	conn := &overlapConn{}
	connID := RegisterFeedConnection(conn, []string{"garden"})
	defer UnregisterFeedConnection(connID)

	const events = 10
	for i := 0; i < events; i++ {
		FanOutFeedEvent(FeedEvent{Type: FeedEventNewPost, CommunityID: "garden"})
	}

	waitForWrites(t, conn, events)
	assert.Zero(t, atomic.LoadInt32(&conn.overlaps), "concurrent writes reached the connection")
}

func TestFanOutOnlyReachesSubscribedCommunities(t *testing.T) {
	gardener := &overlapConn{}
	gardenerID := RegisterFeedConnection(gardener, []string{"garden"})
	defer UnregisterFeedConnection(gardenerID)

	baker := &overlapConn{}
	bakerID := RegisterFeedConnection(baker, []string{"bakery"})
	defer UnregisterFeedConnection(bakerID)

	FanOutFeedEvent(FeedEvent{Type: FeedEventNewPost, CommunityID: "garden"})

	waitForWrites(t, gardener, 1)
	assert.Zero(t, atomic.LoadInt32(&baker.writes))
}

func TestSubscribeAndUnsubscribeFeed(t *testing.T) {
	conn := &overlapConn{}
	connID := RegisterFeedConnection(conn, nil)
	defer UnregisterFeedConnection(connID)

	FanOutFeedEvent(FeedEvent{Type: FeedEventNewPost, CommunityID: "garden"})
	require.Zero(t, atomic.LoadInt32(&conn.writes))

	SubscribeFeed(connID, "garden")
	FanOutFeedEvent(FeedEvent{Type: FeedEventNewPost, CommunityID: "garden"})
	waitForWrites(t, conn, 1)

	UnsubscribeFeed(connID, "garden")
	FanOutFeedEvent(FeedEvent{Type: FeedEventNewPost, CommunityID: "garden"})
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&conn.writes))
}
