package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lucky-boxes-backend/internal/logger"
	"lucky-boxes-backend/internal/services"
	"lucky-boxes-backend/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler keeps a process-local map of connected users. It is a
// side-lookup rebuilt on reconnect, never a source of truth; all durable
// state lives in the store.
type WebSocketHandler struct {
	store *storage.Store
	hub   *WebSocketHub
}

type WebSocketHub struct {
	clients    map[int64]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
}

type Message struct {
	Type   string      `json:"type"`
	UserID int64       `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWebSocketHandler(store *storage.Store) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		store: store,
		hub:   hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Warn("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(c, client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket error", zap.Error(err))
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	user, err := h.store.GetUser(c.Request.Context(), client.UserID)
	if err != nil {
		logger.Log.Warn("Failed to load user for WS", zap.Error(err))
		return
	}

	msg := Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"main":  user.MainBalance,
			"bonus": user.BonusBalance,
			"total": user.TotalBalance(),
		},
	}

	client.Conn.WriteJSON(msg)
}

func (h *WebSocketHandler) sendPong(client *Client) {
	msg := Message{
		Type: "PONG",
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}

	client.Conn.WriteJSON(msg)
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.UserID != 0 {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}

func (h *WebSocketHandler) enqueue(msg *Message) {
	select {
	case h.hub.broadcast <- msg:
	default:
		// Push is best effort; drop rather than block the engine.
	}
}

// BroadcastBalanceUpdate implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastBalanceUpdate(userID int64, mainBalance, bonusBalance float64) {
	h.enqueue(&Message{
		Type:   "BALANCE_UPDATE",
		UserID: userID,
		Data: gin.H{
			"main":  mainBalance,
			"bonus": bonusBalance,
			"total": mainBalance + bonusBalance,
		},
	})
}

// BroadcastRoundSettled notifies the winner of their payout.
func (h *WebSocketHandler) BroadcastRoundSettled(result *services.SettlementResult) {
	h.enqueue(&Message{
		Type:   "ROUND_SETTLED",
		UserID: result.WinnerID,
		Data: gin.H{
			"slot_id":      result.SlotID,
			"round_number": result.RoundNumber,
			"box_id":       result.WinningBoxID,
			"payout":       result.Payout,
			"timestamp":    time.Now().Unix(),
		},
	})
}

// BroadcastSlotFill announces the slot's new fill percentage to everyone.
func (h *WebSocketHandler) BroadcastSlotFill(slotID string, percentage int) {
	h.enqueue(&Message{
		Type: "SLOT_FILL",
		Data: gin.H{
			"slot_id":    slotID,
			"percentage": percentage,
			"timestamp":  time.Now().Unix(),
		},
	})
}
