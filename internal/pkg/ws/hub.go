package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Hub struct {
	// A client subscribes to one job id, or to "" for all jobs.
	// One job can have multiple watchers (multiple tabs, reconnects).
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	JobID string // "" subscribes to every job
	Conn  *websocket.Conn
	mu    sync.Mutex // write lock, websocket conns do not allow concurrent writes
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.JobID] == nil {
		h.clients[client.JobID] = make(map[*Client]struct{})
	}
	h.clients[client.JobID][client] = struct{}{}

	log.Printf("ws: client subscribed to %q, total: %d", client.JobID, h.connectionCountLocked())
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.JobID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.JobID)
		}
	}
	log.Printf("ws: client for %q disconnected", client.JobID)
}

// SendToJob delivers a message to every watcher of jobID plus every
// all-jobs watcher.
func (h *Hub) SendToJob(jobID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*Client, 0)
	for c := range h.clients[jobID] {
		clients = append(clients, c)
	}
	for c := range h.clients[""] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			log.Printf("ws: write error for job %q: %v", jobID, err)
		}
	}
	return nil
}

// HasWatchers reports whether anyone is watching this job.
func (h *Hub) HasWatchers(jobID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID]) > 0 || len(h.clients[""]) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connectionCountLocked()
}

func (h *Hub) connectionCountLocked() int {
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
