// Package websocket pushes alerts to connected dashboards and devices.
// Clients subscribe to topics and receive every alert published to any of
// them exactly once.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/natabridge/natabridge/internal/platform/events"
)

const (
	// TopicAll receives every alert.
	TopicAll = "alerts"

	priorityPrefix = "priority:"
	motherPrefix   = "mother:"

	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	authorizeTimeout = 5 * time.Second
)

// PriorityTopic is the topic carrying alerts of one priority.
func PriorityTopic(priority string) string { return priorityPrefix + priority }

// MotherTopic is the topic carrying alerts about one mother.
func MotherTopic(id uuid.UUID) string { return motherPrefix + id.String() }

// IsMotherTopic reports whether topic is a per-mother topic and returns the id.
func IsMotherTopic(topic string) (uuid.UUID, bool) {
	if !strings.HasPrefix(topic, motherPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(topic, motherPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// TopicsFor lists the topics an alert is delivered on.
func TopicsFor(a events.Alert) []string {
	topics := []string{TopicAll}
	if a.Priority != "" {
		topics = append(topics, PriorityTopic(a.Priority))
	}
	if a.MotherID != nil {
		topics = append(topics, MotherTopic(*a.MotherID))
	}
	return topics
}

// Event is the frame written to clients.
type Event struct {
	Type      string       `json:"type"`
	Topic     string       `json:"topic"`
	Timestamp time.Time    `json:"timestamp"`
	Alert     events.Alert `json:"alert"`
}

// ClientMessage is an inbound subscribe/unsubscribe request.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is a single WebSocket connection.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
	hub    *Hub
	conn   Conn
}

// Hub tracks clients and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}
	logger  zerolog.Logger
	dropped uint64
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	for _, topic := range client.Topics {
		h.addLocked(topic, client)
	}
}

// Unregister removes a client from every topic and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(topic, client)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to a registered client. Topics it already holds are
// ignored.
func (h *Hub) Subscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if _, ok := h.clients[topic][client]; ok {
			continue
		}
		h.addLocked(topic, client)
		client.Topics = append(client.Topics, topic)
	}
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
		h.removeLocked(t, client)
	}

	remaining := client.Topics[:0]
	for _, t := range client.Topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	client.Topics = remaining
}

func (h *Hub) addLocked(topic string, client *Client) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(topic string, client *Client) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// Publish delivers the alert on every topic it belongs to. A client
// subscribed to several of those topics receives it once, tagged with the
// first matching topic. Slow clients whose buffer is full are skipped.
func (h *Hub) Publish(_ context.Context, alert events.Alert) error {
	now := time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*Client]struct{})
	for _, topic := range TopicsFor(alert) {
		subscribers := h.clients[topic]
		if len(subscribers) == 0 {
			continue
		}
		data, err := json.Marshal(Event{Type: alert.Type, Topic: topic, Timestamp: now, Alert: alert})
		if err != nil {
			return err
		}
		for client := range subscribers {
			if _, dup := seen[client]; dup {
				continue
			}
			seen[client] = struct{}{}
			select {
			case client.Send <- data:
			default:
				h.dropped++
				h.logger.Warn().Str("client_id", client.ID).Msg("websocket send buffer full, alert dropped")
			}
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Dropped returns the number of frames skipped because a client was slow.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

// Authorizer decides whether the caller may hold a topic. ctx carries the
// upgrade request's values, including the authenticated principal, and stays
// live for as long as the connection is open.
type Authorizer func(ctx context.Context, topic string) bool

// Handler upgrades /ws requests and routes client messages.
type Handler struct {
	hub       *Hub
	authorize Authorizer
	initial   func(ctx context.Context) []string
	upgrader  gorillawebsocket.Upgrader
}

// NewHandler builds the /ws handler. authorize may be nil to allow every
// topic; initial returns the topics a new connection starts with.
func NewHandler(hub *Hub, authorize Authorizer, initial func(ctx context.Context) []string, allowedOrigins []string) *Handler {
	return &Handler{
		hub:       hub,
		authorize: authorize,
		initial:   initial,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (wsh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// Filter drops topics the caller may not hold.
func (wsh *Handler) Filter(ctx context.Context, topics []string) []string {
	if wsh.authorize == nil {
		return topics
	}
	allowed := make([]string, 0, len(topics))
	for _, t := range topics {
		if wsh.authorize(ctx, t) {
			allowed = append(allowed, t)
		}
	}
	return allowed
}

// HandleConnect upgrades the connection, registers the client and starts
// its pumps.
func (wsh *Handler) HandleConnect(c echo.Context) error {
	if !c.IsWebSocket() {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade required")
	}

	// net/http cancels the request context when this handler returns. The
	// connection context keeps its values, including the principal, and
	// ends when the read pump exits.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request().Context()))

	var topics []string
	if wsh.initial != nil {
		topics = wsh.Filter(ctx, wsh.initial(ctx))
	}
	if q := c.QueryParam("topics"); q != "" {
		topics = append(topics, wsh.Filter(ctx, dedupe(strings.Split(q, ",")))...)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		cancel()
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		Topics: dedupe(topics),
		Send:   make(chan []byte, sendBuffer),
		hub:    wsh.hub,
		conn:   &gorillaConnAdapter{ws},
	}
	wsh.hub.Register(client)

	go wsh.writePump(client, ws)
	go wsh.readPump(ctx, cancel, client, ws)
	return nil
}

func (wsh *Handler) readPump(ctx context.Context, cancel context.CancelFunc, client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		cancel()
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		wsh.process(ctx, client, msg)
	}
}

func (wsh *Handler) process(ctx context.Context, client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		ctx, cancel := context.WithTimeout(ctx, authorizeTimeout)
		defer cancel()
		wsh.hub.Subscribe(client, wsh.Filter(ctx, msg.Topics))
	case "unsubscribe":
		wsh.hub.Unsubscribe(client, msg.Topics)
	}
}

func (wsh *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillawebsocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func dedupe(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy Conn.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
