package ws

import (
	"context"
	"sync"

	"vinivici/internal/logger"
	"vinivici/internal/models"
	"vinivici/internal/services"
	"vinivici/internal/validator"
)

const broadcastBuffer = 64

// OutgoingWSMessage is the server -> browser frame
type OutgoingWSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// envelope addresses a message to one client, or to everyone when target is empty
type envelope struct {
	target string
	msg    OutgoingWSMessage
}

// WebSocketManager pushes UI state snapshots to every connected browser.
// Only Run touches the clients map for writes.
type WebSocketManager struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	done       chan struct{}
	mu         sync.RWMutex

	discoveryService services.DiscoveryService
	validator        *validator.Validator
}

func NewWebSocketManager(discoveryService services.DiscoveryService, v *validator.Validator) *WebSocketManager {
	return &WebSocketManager{
		clients:          make(map[string]*Client),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		broadcast:        make(chan envelope, broadcastBuffer),
		done:             make(chan struct{}),
		discoveryService: discoveryService,
		validator:        v,
	}
}

// Run owns client registration until ctx is cancelled.
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)

	for {
		select {
		case <-ctx.Done():
			manager.closeAll()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.ID] = client
			total := len(manager.clients)
			manager.mu.Unlock()
			logger.CtxInfo(client.Ctx, "WebSocket client registered", "total", total)

			// new clients start from the current state
			manager.deliver(client, stateMessage(manager.discoveryService.Snapshot()))

		case client := <-manager.unregister:
			manager.remove(client)

		case env := <-manager.broadcast:
			if env.target != "" {
				manager.mu.RLock()
				client, ok := manager.clients[env.target]
				manager.mu.RUnlock()
				if ok {
					manager.deliver(client, env.msg)
				}
				continue
			}
			manager.broadcastMessage(env.msg)
		}
	}
}

// BroadcastState is a services.StateListener. It never blocks.
func (manager *WebSocketManager) BroadcastState(snap models.Snapshot) {
	manager.enqueue(envelope{msg: stateMessage(snap)})
}

// SendToClient queues a message for one client
func (manager *WebSocketManager) SendToClient(clientID string, msg OutgoingWSMessage) {
	manager.enqueue(envelope{target: clientID, msg: msg})
}

func (manager *WebSocketManager) enqueue(env envelope) {
	select {
	case manager.broadcast <- env:
	case <-manager.done:
	default:
		logger.Warn("WebSocket broadcast queue full, dropping message", "event", env.msg.Event)
	}
}

// Register hands a client to Run. Returns false after shutdown.
func (manager *WebSocketManager) Register(client *Client) bool {
	select {
	case manager.register <- client:
		return true
	case <-manager.done:
		return false
	}
}

// Unregister removes a client; safe to call after shutdown.
func (manager *WebSocketManager) Unregister(client *Client) {
	select {
	case manager.unregister <- client:
	case <-manager.done:
	}
}

func (manager *WebSocketManager) broadcastMessage(msg OutgoingWSMessage) {
	manager.mu.RLock()
	clients := make([]*Client, 0, len(manager.clients))
	for _, client := range manager.clients {
		clients = append(clients, client)
	}
	manager.mu.RUnlock()

	for _, client := range clients {
		manager.deliver(client, msg)
	}
}

// deliver drops clients whose send buffer is full. Called from Run only.
func (manager *WebSocketManager) deliver(client *Client, msg OutgoingWSMessage) {
	select {
	case client.Send <- msg:
	default:
		logger.CtxWarn(client.Ctx, "WebSocket client disconnected due to full send channel")
		manager.remove(client)
	}
}

func (manager *WebSocketManager) remove(client *Client) {
	manager.mu.Lock()
	current, ok := manager.clients[client.ID]
	if ok && current == client {
		delete(manager.clients, client.ID)
		close(client.Send)
	}
	total := len(manager.clients)
	manager.mu.Unlock()

	if ok {
		logger.CtxInfo(client.Ctx, "WebSocket client unregistered", "total", total)
	}
}

func (manager *WebSocketManager) closeAll() {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	for id, client := range manager.clients {
		close(client.Send)
		delete(manager.clients, id)
	}
}

// GetClientCount returns the number of connected clients
func (manager *WebSocketManager) GetClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

func stateMessage(snap models.Snapshot) OutgoingWSMessage {
	return OutgoingWSMessage{Event: "state", Data: snap}
}
