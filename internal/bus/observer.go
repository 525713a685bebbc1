package bus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize bounds client frames; the observer is one-way.
	maxInboundSize = 512
)

// Observer forwards bus events to websocket clients. It mounts as a plain
// http.Handler on the API server rather than running its own listener.
type Observer struct {
	bus    *Bus
	replay int // history entries sent on connect

	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*wsClient]bool

	subID SubscriptionID
	log   zerolog.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewObserver attaches an observer to the bus. replay is how many recent
// events each new client receives before live events; zero disables replay.
func NewObserver(b *Bus, replay int) *Observer {
	o := &Observer{
		bus:    b,
		replay: replay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]bool),
		log:     logging.Component("observer"),
	}
	o.subID = b.Subscribe("", o.broadcast)
	return o
}

// Close detaches the observer from the bus and drops all clients.
func (o *Observer) Close() {
	_ = o.bus.Unsubscribe(o.subID)

	o.clientsMu.Lock()
	defer o.clientsMu.Unlock()
	for c := range o.clients {
		close(c.send)
		delete(o.clients, c)
	}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (o *Observer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, DefaultChannelBuffer)}

	if o.replay > 0 {
		for _, e := range o.bus.Recent(o.replay) {
			if payload, err := json.Marshal(e); err == nil {
				c.send <- payload
			}
		}
	}

	o.clientsMu.Lock()
	o.clients[c] = true
	o.clientsMu.Unlock()

	go o.writePump(c)
	go o.readPump(c)
}

func (o *Observer) broadcast(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		o.log.Error().Err(err).Str("type", string(e.Type)).Msg("event marshal failed")
		return
	}

	o.clientsMu.RLock()
	defer o.clientsMu.RUnlock()
	for c := range o.clients {
		select {
		case c.send <- payload:
		default:
			// Slow client, skip this event.
		}
	}
}

func (o *Observer) drop(c *wsClient) {
	o.clientsMu.Lock()
	if o.clients[c] {
		delete(o.clients, c)
		close(c.send)
	}
	o.clientsMu.Unlock()
	_ = c.conn.Close()
}

// writePump serializes all writes to the connection: queued events plus
// the keepalive pings.
func (o *Observer) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames so pongs are processed and disconnects
// are noticed.
func (o *Observer) readPump(c *wsClient) {
	defer o.drop(c)

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
