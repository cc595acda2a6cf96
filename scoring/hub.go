package scoring

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Rooms clients can subscribe to.
const (
	// RoomScoreboard receives the current ranking snapshot after every
	// upstream refresh.
	RoomScoreboard = "scoreboard"

	// RoomReplay receives the full snapshot sequence, paced by a Player,
	// every time the log changes.
	RoomReplay = "replay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Subscriber is one websocket connection watching a room.
type Subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

// Hub fans ranking snapshots out to websocket subscribers, grouped by room.
type Hub struct {
	register   chan *Subscriber
	unregister chan *Subscriber
	rooms      map[string]map[*Subscriber]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		rooms:      make(map[string]map[*Subscriber]bool),
		logger:     logger,
	}
}

// Run owns the room bookkeeping. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[sub.room]; !ok {
				h.rooms[sub.room] = make(map[*Subscriber]bool)
			}
			h.rooms[sub.room][sub] = true
			h.logger.Info("subscriber joined",
				slog.String("room", sub.room),
				slog.Int("subscribers", len(h.rooms[sub.room])))
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[sub.room]; ok && room[sub] {
				sub.mu.Lock()
				if !sub.closed {
					close(sub.send)
					sub.closed = true
				}
				sub.mu.Unlock()
				delete(room, sub)
				if len(room) == 0 {
					delete(h.rooms, sub.room)
				}
				h.logger.Info("subscriber left", slog.String("room", sub.room))
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe attaches a websocket connection to a room and starts its pumps.
func (h *Hub) Subscribe(conn *websocket.Conn, room string) *Subscriber {
	sub := &Subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		room: room,
	}
	h.register <- sub
	go sub.writePump()
	go sub.readPump()
	return sub
}

// BroadcastToRoom sends a JSON-encoded message to every subscriber in a
// room. Subscribers with a full send queue are skipped, not blocked on.
func (h *Hub) BroadcastToRoom(room string, message interface{}) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to encode broadcast",
			slog.String("room", room), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[room] {
		sub.mu.Lock()
		if sub.closed {
			sub.mu.Unlock()
			continue
		}
		select {
		case sub.send <- payload:
		default:
			h.logger.Warn("subscriber send queue full, dropping frame",
				slog.String("room", room))
		}
		sub.mu.Unlock()
	}
}

// RoomSize reports the current number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// readPump drains (and ignores) client messages so pings and close frames
// get processed, then unregisters on disconnect.
func (s *Subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("websocket read failed",
					slog.String("room", s.room), slog.Any("error", err))
			}
			return
		}
	}
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
