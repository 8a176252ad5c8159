package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manoj0727/Nexify-server/internal/database"
)

// Feed event types pushed to subscribed clients.
const (
	FeedEventNewPost     = "new_post"
	FeedEventPostDeleted = "post_deleted"
	FeedEventPostPinned  = "post_pinned"
	FeedEventPostLocked  = "post_locked"
)

// FeedEvent is the payload broadcast over Redis and WebSocket when a
// community's feed changes.
type FeedEvent struct {
	Type        string    `json:"type"`
	CommunityID string    `json:"community_id"`
	PostID      string    `json:"post_id,omitempty"`
	AuthorID    string    `json:"author_id,omitempty"`
	AuthorName  string    `json:"author_name,omitempty"`
	Title       string    `json:"title,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// feedSubscriber tracks a single WebSocket connection and the communities
// it follows. writeMu serializes writes: gorilla/websocket allows at most
// one concurrent writer per connection.
type feedSubscriber struct {
	conn        FeedConn
	writeMu     sync.Mutex
	communities map[string]struct{}
	mu          sync.RWMutex
}

func (s *feedSubscriber) send(event FeedEvent) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(event); err != nil {
		log.Printf("error writing feed event to websocket: %v", err)
	}
}

// feedHub is a per-instance registry of feed connections.
type feedHub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*feedSubscriber
}

var (
	hub             = &feedHub{subs: make(map[uuid.UUID]*feedSubscriber)}
	feedRedisOnce   sync.Once
	feedChannelBase = "feed:community:"
)

// RegisterFeedConnection registers a WebSocket connection and returns its
// subscriber id for later unregistration.
func RegisterFeedConnection(conn FeedConn, communityIDs []string) uuid.UUID {
	sub := &feedSubscriber{
		conn:        conn,
		communities: make(map[string]struct{}, len(communityIDs)),
	}
	for _, id := range communityIDs {
		sub.communities[id] = struct{}{}
	}

	connID := uuid.New()
	hub.mu.Lock()
	hub.subs[connID] = sub
	hub.mu.Unlock()
	return connID
}

// UnregisterFeedConnection removes a connection from the hub.
func UnregisterFeedConnection(connID uuid.UUID) {
	hub.mu.Lock()
	delete(hub.subs, connID)
	hub.mu.Unlock()
}

// SubscribeFeed adds a community to a connection's subscriptions.
func SubscribeFeed(connID uuid.UUID, communityID string) {
	hub.mu.RLock()
	sub, ok := hub.subs[connID]
	hub.mu.RUnlock()
	if !ok {
		return
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.communities[communityID] = struct{}{}
}

// UnsubscribeFeed removes a community from a connection's subscriptions.
func UnsubscribeFeed(connID uuid.UUID, communityID string) {
	hub.mu.RLock()
	sub, ok := hub.subs[connID]
	hub.mu.RUnlock()
	if !ok {
		return
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	delete(sub.communities, communityID)
}

// FanOutFeedEvent sends an event to all local connections subscribed to
// the community.
func FanOutFeedEvent(event FeedEvent) {
	if event.CommunityID == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, sub := range hub.subs {
		sub.mu.RLock()
		_, subscribed := sub.communities[event.CommunityID]
		sub.mu.RUnlock()
		if !subscribed {
			continue
		}

		// Best-effort send off the fan-out path; writeMu keeps
		// concurrent events from interleaving on one connection.
		go sub.send(event)
	}
}

// StartFeedSubscriber ensures a single shared Redis listener per instance.
func StartFeedSubscriber(ctx context.Context) {
	feedRedisOnce.Do(func() {
		go runFeedSubscriber(ctx)
	})
}

func runFeedSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, feedChannelBase+"*")
			defer pubsub.Close()

			log.Println("✅ Feed Redis subscriber started (pattern: feed:community:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}

				FanOutFeedEvent(event)
			}
		}()
	}
}

// PublishFeedEvent publishes an event to Redis so every instance can fan
// it out to its local WebSocket connections.
func PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if database.RedisClient == nil {
		return nil
	}
	return database.RedisClient.Publish(ctx, feedChannelBase+event.CommunityID, data).Err()
}
