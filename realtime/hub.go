// Package realtime empurra eventos de governança (votos, mudanças de
// status, execuções) para clientes websocket conectados, no lugar do canal
// realtime hospedado que o frontend de referência consumia.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Event é a mensagem entregue aos assinantes de um tópico.
type Event struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// subscribeRequest é o que o cliente manda pelo socket.
type subscribeRequest struct {
	Action string `json:"action"` // "subscribe" ou "unsubscribe"
	Topic  string `json:"topic"`  // Ex: "vault:<id>", "proposal:<id>"
}

// Hub mantém os clientes conectados e o mapa tópico -> assinantes.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]struct{}
	upgrader    websocket.Upgrader
}

// Client é uma conexão websocket com seus tópicos assinados.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}
}

// NewHub cria um hub vazio.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// A autorização de leitura é pública: qualquer carteira pode
			// observar o estado de vaults e propostas.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish entrega o evento a todos os assinantes do tópico. Clientes com o
// buffer de envio cheio são derrubados em vez de bloquear o publicador.
func (h *Hub) Publish(topic, eventType string, payload any) {
	msg, err := json.Marshal(Event{Topic: topic, Event: eventType, Payload: payload})
	if err != nil {
		logrus.WithError(err).Error("Falha ao serializar evento realtime")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.subscribers[topic]))
	for c := range h.subscribers[topic] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			logrus.WithField("topic", topic).Warn("Cliente realtime lento; desconectando")
			h.drop(c)
		}
	}
}

// ServeHTTP faz o upgrade da conexão e inicia as bombas de leitura/escrita.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("Falha no upgrade websocket")
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		topics: make(map[string]struct{}),
	}

	go client.writePump()
	go client.readPump()
}

// SubscriberCount devolve quantos clientes assinam um tópico.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

func (h *Hub) subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*Client]struct{})
	}
	h.subscribers[topic][c] = struct{}{}
	c.topics[topic] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[topic], c)
	if len(h.subscribers[topic]) == 0 {
		delete(h.subscribers, topic)
	}
	delete(c.topics, topic)
}

// drop remove o cliente de todos os tópicos e fecha o canal de envio.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic := range c.topics {
		delete(h.subscribers[topic], c)
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
	}
	c.topics = make(map[string]struct{})
	c.conn.Close()
}

func (c *Client) readPump() {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Topic == "" {
			continue
		}
		switch req.Action {
		case "subscribe":
			c.hub.subscribe(c, req.Topic)
		case "unsubscribe":
			c.hub.unsubscribe(c, req.Topic)
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
