package server

import (
	"context"
	"encoding/json"
	"log"

	"alliancefeed/internal/notifications"
	"alliancefeed/internal/observability"
	"alliancefeed/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler handles WebSocket connections for the live feed. On
// connect the client receives the current snapshot and its composer state;
// afterwards every applied snapshot is pushed, and interaction commands sent
// over the socket are echoed back as interaction_state frames.
func (s *Server) WebsocketHandler() fiber.Handler {
	wsLog := observability.NewWSLogger(s.hub.Name())

	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		sess, err := s.sessions.Resolve(ctx, userID)
		if err != nil {
			log.Printf("WebSocket: Failed to resolve session for user %d: %v", userID, err)
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		wsLog.LogConnect(ctx, userID)

		client.IncomingHandler = s.feedCommandHandler(ctx, sess, wsLog)

		go client.WritePump()

		// Initial state: current snapshot plus this session's composer.
		if payload, rErr := renderSnapshotEvent(s.feed.View()); rErr == nil {
			client.TrySend([]byte(payload))
		}
		if payload, rErr := renderInteractionEvent(s.feed.StateOf(userID)); rErr == nil {
			client.TrySend([]byte(payload))
		}

		// Blocks until the connection drops.
		client.ReadPump()
		wsLog.LogDisconnect(ctx, userID, "read pump closed")
	})
}

// feedCommandHandler returns the incoming-frame handler for one connection.
// Commands mutate the session's composer or publish through the pipeline;
// each one is answered with the resulting interaction_state frame, or an
// error frame carrying the application error code.
func (s *Server) feedCommandHandler(
	ctx context.Context, sess session.Session, wsLog *observability.WSLogger,
) func(*notifications.Client, []byte) {
	return func(c *notifications.Client, message []byte) {
		var event wsEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("WebSocket: Invalid message format from user %d", sess.UserID)
			return
		}

		var cmdErr error
		switch event.Type {
		case EventPublish:
			var payload struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				return
			}
			_, cmdErr = s.feed.Publish(ctx, sess, payload.Text)

		case EventDelete:
			var payload struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				return
			}
			cmdErr = s.feed.Delete(ctx, sess, payload.ID)

		case EventBeginEdit:
			var payload struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				return
			}
			cmdErr = s.feed.BeginEdit(sess.UserID, payload.ID)

		case EventBeginReply:
			var payload struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				return
			}
			cmdErr = s.feed.BeginReply(sess.UserID, payload.ID)

		case EventToggleMenu:
			var payload struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(event.Payload, &payload); err != nil {
				return
			}
			s.feed.ToggleMenu(sess.UserID, payload.ID)

		case EventDismiss:
			s.feed.DismissAll(sess.UserID)

		default:
			log.Printf("WebSocket: Unknown event type %q from user %d", event.Type, sess.UserID)
			return
		}

		if cmdErr != nil {
			wsLog.LogError(ctx, sess.UserID, cmdErr, event.Type)
			c.TrySend([]byte(renderErrorEvent(cmdErr)))
			return
		}

		if payload, err := renderInteractionEvent(s.feed.StateOf(sess.UserID)); err == nil {
			c.TrySend([]byte(payload))
		}
	}
}
