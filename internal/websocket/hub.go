package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"debate-forum/internal/models"
)

type topicMessage struct {
	debateID uuid.UUID
	payload  []byte
}

// Hub fans change events out to the clients subscribed to a debate.
// Delivery is best effort; clients re-fetch on every event they do receive.
type Hub struct {
	// Subscribed clients per debate. Only touched by the Run goroutine.
	topics map[uuid.UUID]map[*Client]bool

	publish    chan *topicMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		topics:     make(map[uuid.UUID]map[*Client]bool),
		publish:    make(chan *topicMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("ws_hub"),
	}
}

// Run processes registrations and events until ctx is cancelled. On return
// every client's Send channel is closed, which stops its write pump.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.Info("websocket hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.topics {
				for c := range clients {
					close(c.Send)
				}
			}
			h.topics = make(map[uuid.UUID]map[*Client]bool)
			h.logger.Info("websocket hub stopped")
			return nil

		case c := <-h.register:
			clients, ok := h.topics[c.DebateID]
			if !ok {
				clients = make(map[*Client]bool)
				h.topics[c.DebateID] = clients
			}
			clients[c] = true
			h.logger.Debug("client subscribed",
				zap.Stringer("debate_id", c.DebateID),
				zap.Stringer("user_id", c.UserID),
				zap.Int("subscribers", len(clients)))

		case c := <-h.unregister:
			if clients, ok := h.topics[c.DebateID]; ok && clients[c] {
				delete(clients, c)
				close(c.Send)
				if len(clients) == 0 {
					delete(h.topics, c.DebateID)
				}
			}

		case msg := <-h.publish:
			for c := range h.topics[msg.debateID] {
				select {
				case c.Send <- msg.payload:
				default:
					h.logger.Warn("send buffer full, event dropped", zap.Stringer("user_id", c.UserID))
				}
			}
		}
	}
}

// Register subscribes c to its debate. It is a no-op once the hub stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for the subscribers of event.DebateID. It never
// blocks the caller for longer than one second.
func (h *Hub) Publish(event models.ChangeEvent) {
	debateID, err := uuid.Parse(event.DebateID)
	if err != nil {
		h.logger.Warn("event without valid debate id", zap.String("type", event.Type))
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	select {
	case h.publish <- &topicMessage{debateID: debateID, payload: payload}:
	case <-h.done:
	case <-time.After(time.Second):
		h.logger.Warn("timeout queuing event, hub busy", zap.String("type", event.Type))
	}
}
