// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"

	"alliancefeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	// feedEventsChannel carries rendered feed events for every connected
	// client (snapshots, interaction echoes).
	feedEventsChannel = "feed:events"
	// newCommentChannel carries the generic new-comment notification
	// consumed by the push delivery subsystem.
	newCommentChannel = "feed:notifications"
)

// NewCommentNotification is the fixed payload fired on comment creation.
// It deliberately carries no comment data; delivery is a generic nudge.
type NewCommentNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notifier provides helpers to publish feed events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent sends a feed event payload to every subscribed instance.
func (n *Notifier) PublishEvent(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, feedEventsChannel, payload).Err()
}

// NotifyNewComment fires the new-comment side effect. Fire-and-forget: a
// delivery failure is logged and counted but never propagated, so it cannot
// turn a successful publish into a failed one.
func (n *Notifier) NotifyNewComment(ctx context.Context) {
	observability.NotificationsSent.Inc()
	if n.rdb == nil {
		return
	}
	payload, err := json.Marshal(NewCommentNotification{
		Title: "New Comment!",
		Body:  "Someone commented on your post!",
	})
	if err != nil {
		return
	}
	if err := n.rdb.Publish(ctx, newCommentChannel, payload).Err(); err != nil {
		log.Printf("new-comment notification dropped: %v", err)
	}
}

// StartFeedSubscriber subscribes to the feed event and notification
// channels and calls onMessage for each incoming message. onMessage
// receives channel and payload.
func (n *Notifier) StartFeedSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, feedEventsChannel, newCommentChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in FeedSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// IsNotificationChannel reports whether a channel name carries push
// notification payloads rather than feed events.
func IsNotificationChannel(channel string) bool {
	return channel == newCommentChannel
}
