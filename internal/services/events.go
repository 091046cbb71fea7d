package services

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventHabitCreated   = "habit.created"
	EventHabitUpdated   = "habit.updated"
	EventHabitDeleted   = "habit.deleted"
	EventHabitToggled   = "habit.toggled"
	EventMoodRecorded   = "mood.recorded"
	EventJournalCreated = "journal.created"
	EventJournalUpdated = "journal.updated"
	EventJournalDeleted = "journal.deleted"
)

const eventWriteTimeout = 5 * time.Second

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type userEvent struct {
	userID string
	event  Event
}

// EventHub fans change events out to the websocket connections of the user
// who owns the changed row. Only Run writes to connections.
type EventHub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]bool
	ch      chan userEvent
}

func NewEventHub(queueSize int) *EventHub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &EventHub{
		clients: map[string]map[*websocket.Conn]bool{},
		ch:      make(chan userEvent, queueSize),
	}
}

func (h *EventHub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.ch:
			for _, conn := range h.connections(msg.userID) {
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
				if err := conn.WriteJSON(msg.event); err != nil {
					h.Remove(msg.userID, conn)
					_ = conn.Close()
				}
			}
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Publish queues an event for userID. A full queue drops the event.
func (h *EventHub) Publish(userID, eventType string, data interface{}) bool {
	select {
	case h.ch <- userEvent{userID: userID, event: Event{Type: eventType, Data: data}}:
		return true
	default:
		return false
	}
}

func (h *EventHub) Add(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*websocket.Conn]bool{}
	}
	h.clients[userID][conn] = true
}

func (h *EventHub) Remove(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Connections returns how many sockets userID has open.
func (h *EventHub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *EventHub) connections(userID string) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients[userID]))
	for conn := range h.clients[userID] {
		conns = append(conns, conn)
	}
	return conns
}

func (h *EventHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.clients, userID)
	}
}
