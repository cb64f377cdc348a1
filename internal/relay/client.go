package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"campus-taskhub/internal/core/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 同源策略交给部署层（反代）处理
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	cfg    config.Relay
}

// Serve 升级连接并启动读写泵。调用方已完成身份校验。
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, cfg config.Relay) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 64),
		cfg:    cfg,
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.drop(c)
		close(c.send)
		_ = c.conn.Close()
	}()
	pongWait := time.Duration(c.cfg.PongWaitSec) * time.Second
	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("relay read", zap.Error(err))
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			c.reply(frame{Type: "error", Error: "bad frame"})
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch in.Type {
	case "join":
		// 入房每次重读任务状态，参与者才放行
		if c.hub.gate == nil || !c.hub.gate.CanJoin(ctx, c.userID, in.TaskID) {
			c.reply(frame{Type: "error", TaskID: in.TaskID, Error: "not a participant"})
			return
		}
		c.hub.join(in.TaskID, c)
		c.reply(frame{Type: "joined", TaskID: in.TaskID})
	case "leave":
		c.hub.leave(in.TaskID, c)
	case "message":
		if c.hub.gate == nil {
			c.reply(frame{Type: "error", TaskID: in.TaskID, Error: "relay not ready"})
			return
		}
		// 落库 + 广播都在 Send 里，房间内所有端（含发送方其他设备）都会收到
		if _, err := c.hub.gate.Send(ctx, c.userID, in.TaskID, in.Content); err != nil {
			c.reply(frame{Type: "error", TaskID: in.TaskID, Error: err.Error()})
		}
	default:
		c.reply(frame{Type: "error", Error: "unknown frame type"})
	}
}

func (c *Client) reply(f frame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) writePump() {
	writeWait := time.Duration(c.cfg.WriteWaitSec) * time.Second
	pingPeriod := time.Duration(c.cfg.PongWaitSec) * time.Second * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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
