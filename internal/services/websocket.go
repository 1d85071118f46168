package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/chachabrian/courier-backend/internal/models"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket watching a single tracking number.
type Client struct {
	TrackingNumber string
	Conn           *websocket.Conn
	Send           chan []byte
	Hub            *TrackingHub
}

// TrackingHub fans parcel status changes out to the clients watching each parcel.
type TrackingHub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan ParcelStatusUpdate
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewTrackingHub() *TrackingHub {
	return &TrackingHub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan ParcelStatusUpdate, 64),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until stop is closed.
func (h *TrackingHub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mutex.Lock()
			watchers, ok := h.clients[client.TrackingNumber]
			if !ok {
				watchers = make(map[*Client]bool)
				h.clients[client.TrackingNumber] = watchers
			}
			watchers[client] = true
			h.mutex.Unlock()
			log.Printf("Tracking client connected for parcel %s", client.TrackingNumber)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.removeLocked(client)
			h.mutex.Unlock()
			log.Printf("Tracking client disconnected for parcel %s", client.TrackingNumber)

		case update := <-h.broadcast:
			data, err := json.Marshal(WebSocketMessage{Type: "parcel_status", Data: update})
			if err != nil {
				log.Printf("Error marshaling parcel status update: %v", err)
				continue
			}
			h.mutex.Lock()
			for client := range h.clients[update.TrackingNumber] {
				select {
				case client.Send <- data:
				default:
					h.removeLocked(client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *TrackingHub) removeLocked(client *Client) {
	watchers, ok := h.clients[client.TrackingNumber]
	if !ok {
		return
	}
	if _, ok := watchers[client]; ok {
		delete(watchers, client)
		close(client.Send)
	}
	if len(watchers) == 0 {
		delete(h.clients, client.TrackingNumber)
	}
}

func (h *TrackingHub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for tn, watchers := range h.clients {
		for client := range watchers {
			close(client.Send)
		}
		delete(h.clients, tn)
	}
}

// PublishStatus queues update for delivery. It never blocks the caller;
// updates are dropped when the queue is full.
func (h *TrackingHub) PublishStatus(update ParcelStatusUpdate) {
	select {
	case h.broadcast <- update:
	default:
		log.Printf("Warning: dropped status update for parcel %s (queue full)", update.TrackingNumber)
	}
}

// ConnectedClients returns the number of clients watching trackingNumber.
func (h *TrackingHub) ConnectedClients(trackingNumber string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[trackingNumber])
}

type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ParcelStatusUpdate is pushed to live trackers whenever a parcel changes status.
type ParcelStatusUpdate struct {
	TrackingNumber string              `json:"trackingNumber"`
	Status         models.ParcelStatus `json:"status"`
	DateAndTime    string              `json:"dateAndTime"`
}

// ServeTracking upgrades the request and subscribes it to trackingNumber.
// The current status is sent first when initial is non-nil.
func (h *TrackingHub) ServeTracking(w http.ResponseWriter, r *http.Request, trackingNumber string, initial *ParcelStatusUpdate) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		TrackingNumber: trackingNumber,
		Conn:           conn,
		Send:           make(chan []byte, 16),
		Hub:            h,
	}

	if initial != nil {
		if data, err := json.Marshal(WebSocketMessage{Type: "parcel_status", Data: initial}); err == nil {
			client.Send <- data
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only watches for the peer going away; trackers never send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
