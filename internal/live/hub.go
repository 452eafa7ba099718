package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/metrics"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBufSize  = 16
	broadcastDepth = 256
)

// Client 一个已订阅某辆车的 WebSocket 连接。
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	vehicleID string
	send      chan []byte
}

// Hub 按车辆分房间的 WebSocket 广播中心。
// 所有房间变更都在 Run 协程里串行处理，避免 map 并发读写。
type Hub struct {
	rooms      map[string]map[*Client]bool // vehicleID -> clients
	register   chan *Client
	unregister chan *Client
	broadcast  chan VehicleUpdate
	done       chan struct{} // Run 退出后关闭，读写泵据此放弃注销
	log        logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan VehicleUpdate, broadcastDepth),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run 事件循环；随 ctx 结束退出并关闭所有连接。
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*Client]bool)
			return
		case c := <-h.register:
			room := h.rooms[c.vehicleID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[c.vehicleID] = room
			}
			room[c] = true
		case c := <-h.unregister:
			if room, ok := h.rooms[c.vehicleID]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.vehicleID)
					}
				}
			}
		case u := <-h.broadcast:
			room := h.rooms[u.VehicleID]
			if len(room) == 0 {
				continue
			}
			payload, err := json.Marshal(u)
			if err != nil {
				continue
			}
			for c := range room {
				select {
				case c.send <- payload:
				default:
					// 消费太慢的客户端直接踢掉，不拖慢整个房间
					metrics.BroadcastDrops.WithLabelValues("ws").Inc()
					delete(room, c)
					close(c.send)
				}
			}
			if len(room) == 0 {
				delete(h.rooms, u.VehicleID)
			}
		}
	}
}

// Publish 把更新投递给对应房间；队列满则丢弃。
func (h *Hub) Publish(_ context.Context, u VehicleUpdate) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- u:
	default:
		metrics.BroadcastDrops.WithLabelValues("ws").Inc()
		if h.log != nil {
			h.log.Warnf("live hub broadcast queue full, dropping update vehicle_id=%s", u.VehicleID)
		}
	}
}

// Subscribe 把升级完成的连接挂到指定车辆的房间。
func (h *Hub) Subscribe(conn *websocket.Conn, vehicleID string) {
	c := &Client{
		hub:       h,
		conn:      conn,
		vehicleID: vehicleID,
		send:      make(chan []byte, clientBufSize),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		// Run 已退出时没有接收方，直接放弃注销
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// 订阅是单向的，客户端消息只用于保活/探测断连
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
