package ws

import (
	"context"
	"encoding/json"
	"time"

	"vinivici/internal/dto"
	"vinivici/internal/logger"
	"vinivici/pkg/apperrors"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

// IncomingWSMessage is the browser -> server frame
type IncomingWSMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan OutgoingWSMessage
	Ctx  context.Context

	Manager *WebSocketManager
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWarn(c.Ctx, "WebSocket read error", "error", err.Error())
			}
			return
		}

		var msg IncomingWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			c.replyError(apperrors.NewBadRequestError("Invalid message: " + err.Error()))
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// manager closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				logger.CtxWarn(c.Ctx, "WebSocket write error", "error", err.Error())
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

// handleMessage dispatches browser actions to the discovery service.
// State changes reach every client through the broadcast, not as replies.
func (c *Client) handleMessage(msg IncomingWSMessage) {
	svc := c.Manager.discoveryService

	switch msg.Action {
	case "discover":
		svc.StartDiscovery(c.Ctx)

	case "toggle_ban":
		var req dto.ToggleBanRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.replyError(apperrors.NewBadRequestError("Invalid toggle_ban payload: " + err.Error()))
			return
		}
		if err := c.Manager.validator.Validate(&req); err != nil {
			c.replyError(apperrors.NewBadRequestError(err.Error()))
			return
		}
		if _, err := svc.ToggleBan(req.Rule()); err != nil {
			c.replyError(err)
		}

	case "state":
		c.Manager.SendToClient(c.ID, stateMessage(svc.Snapshot()))

	default:
		c.replyError(apperrors.NewBadRequestError("Unknown action: " + msg.Action))
	}
}

func (c *Client) replyError(err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalError(err)
	}
	logger.CtxWarn(c.Ctx, "WebSocket action failed", "error", appErr.Message)
	c.Manager.SendToClient(c.ID, OutgoingWSMessage{Event: "error", Data: appErr})
}
