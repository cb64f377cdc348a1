package relay

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"campus-taskhub/internal/domain"
)

// Gate 入房/发消息的校验与落库，由 message service 实现。
// 放接口是为了断开 relay → service 的构造环。
type Gate interface {
	CanJoin(ctx context.Context, callerID, taskID string) bool
	Send(ctx context.Context, callerID, taskID, content string) (*domain.Message, error)
}

// Hub 单进程房间广播：taskID → 在线连接集合。
// 同一参与者的多端都会收到；掉线的连接收不到，靠历史接口对账。
// 换分布式广播时只需要换 Publisher 实现，调用方不动。
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	gate Gate
	log  *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

// Bind 注入 gate（hub 和 message service 互相依赖，构造后再绑）
func (h *Hub) Bind(g Gate) { h.gate = g }

func (h *Hub) join(taskID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[taskID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[taskID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(taskID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[taskID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, taskID)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for taskID, room := range h.rooms {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, taskID)
		}
	}
}

// RoomSize 测试与运维用
func (h *Hub) RoomSize(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[taskID])
}

// PublishMessage 广播到任务房间，实现 service.Publisher。
// 慢连接发送缓冲满了直接丢帧，不阻塞广播方。
func (h *Hub) PublishMessage(taskID string, msg *domain.Message) {
	b, err := json.Marshal(frame{Type: "message", TaskID: taskID, Message: msg})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[taskID] {
		select {
		case c.send <- b:
		default:
			h.log.Warn("relay send buffer full, dropping frame",
				zap.String("task", taskID), zap.String("user", c.userID))
		}
	}
}

// frame 下行帧；上行见 inbound
type frame struct {
	Type    string          `json:"type"` // message / joined / error
	TaskID  string          `json:"taskId,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type inbound struct {
	Type    string `json:"type"` // join / leave / message
	TaskID  string `json:"taskId"`
	Content string `json:"content,omitempty"`
}
