package notifications

import (
	"log"
	"time"

	"alliancefeed/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Deadline for a single write to the peer.
	writeWait = 10 * time.Second

	// Deadline for the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping interval. Must stay under pongWait or healthy peers get cut.
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames are small interaction commands, never comment
	// payloads, so the read limit can be tight.
	maxMessageSize = 4096
)

// WSHub is the minimal hub surface a client needs: somewhere to report its
// own death, and a name for metrics labels.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client binds one websocket connection to a hub. Writes go through the
// buffered Send channel so broadcasts never block on a slow peer.
type Client struct {
	Hub  WSHub
	Conn *websocket.Conn

	// Outbound frames, drained by WritePump.
	Send chan []byte

	// Authenticated owner of the connection.
	UserID uint

	// IncomingHandler receives each inbound frame. Nil means the
	// connection is read-only and inbound frames are discarded.
	IncomingHandler func(*Client, []byte)
}

// NewClient wires a connection to a hub with a 256-frame outbound buffer.
func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// ReadPump consumes inbound frames until the connection dies, keeping the
// pong deadline fresh. It unregisters the client on exit, which closes Send
// and so also stops WritePump.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ReadPump Error (User %d): %v", c.UserID, err)
			}
			return
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, frame)
		}
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// pings. A closed Send channel means the hub dropped us; send a close frame
// and stop.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case frame, open := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues a frame without ever blocking the broadcaster. When the
// buffer is full the frame is dropped and a best-effort events_dropped
// notice is queued instead; the next full snapshot heals the gap anyway,
// since every broadcast carries the whole collection.
func (c *Client) TrySend(frame []byte) {
	defer func() {
		// Send may race with the hub closing the channel.
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- frame:
		return
	default:
	}

	observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
	log.Printf("Client %d (%s): Buffer full, dropped message", c.UserID, c.Hub.Name())

	notice := []byte(`{"type":"events_dropped","payload":{"reason":"buffer_full"}}`)
	select {
	case c.Send <- notice:
	default:
	}
}
