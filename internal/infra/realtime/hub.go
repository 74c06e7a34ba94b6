package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const (
	ActionLeadCreated = "lead.created"
	writeWait         = 5 * time.Second
	sendBuffer        = 16
)

type LeadWSMessage struct {
	Action string       `json:"action"`
	Lead   *entity.Lead `json:"lead"`
}

// client tem a própria fila de saída; só o writePump escreve na conexão.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub mantém as conexões websocket agrupadas por dono. Cada dono só recebe os
// próprios leads. O broadcast nunca espera a rede: cliente com a fila cheia é derrubado.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve faz o upgrade e segura a conexão até o cliente fechar. O que o cliente
// envia é descartado.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, ownerID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("⚠️ upgrade websocket falhou: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(ownerID, c)
	defer h.remove(ownerID, c)

	go c.writePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) BroadcastLead(ownerID string, lead *entity.Lead) {
	payload, err := json.Marshal(LeadWSMessage{Action: ActionLeadCreated, Lead: lead})
	if err != nil {
		log.WithError(err).Error("❌ falha ao serializar lead para o websocket")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients[ownerID] {
		select {
		case c.send <- payload:
		default:
			log.WithField("owner_id", ownerID).Warn("⚠️ cliente websocket lento, desconectando")
			h.removeLocked(ownerID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) Subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[ownerID])
}

func (h *Hub) add(ownerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ownerID] == nil {
		h.clients[ownerID] = make(map[*client]struct{})
	}
	h.clients[ownerID][c] = struct{}{}
}

func (h *Hub) remove(ownerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(ownerID, c)
}

// removeLocked fecha a fila uma única vez; o writePump encerra e fecha a conexão.
func (h *Hub) removeLocked(ownerID string, c *client) {
	if _, ok := h.clients[ownerID][c]; !ok {
		return
	}
	delete(h.clients[ownerID], c)
	if len(h.clients[ownerID]) == 0 {
		delete(h.clients, ownerID)
	}
	close(c.send)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
