package realtime_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferreirogomes/solimare/realtime"
)

func dialHub(t *testing.T, hub *realtime.Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func subscribe(t *testing.T, conn *websocket.Conn, hub *realtime.Hub, topic string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{
		"action": "subscribe",
		"topic":  topic,
	}))
	waitForSubscribers(t, hub, topic, 1)
}

// waitForSubscribers espera o readPump processar a assinatura.
func waitForSubscribers(t *testing.T, hub *realtime.Hub, topic string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(topic) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("tópico %q não chegou a %d assinantes", topic, want)
}

func TestHub_EntregaSomenteAoTopicoAssinado(t *testing.T) {
	hub := realtime.NewHub()
	conn := dialHub(t, hub)
	subscribe(t, conn, hub, "vault:v1")

	// Evento de outro tópico não chega; o do tópico assinado chega depois.
	hub.Publish("vault:outro", "proposal_created", map[string]string{"id": "p0"})
	hub.Publish("vault:v1", "proposal_created", map[string]string{"id": "p1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event realtime.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "vault:v1", event.Topic)
	assert.Equal(t, "proposal_created", event.Event)

	payload, ok := event.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "p1", payload["id"])
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := realtime.NewHub()
	conn := dialHub(t, hub)
	subscribe(t, conn, hub, "proposal:p1")

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action": "unsubscribe",
		"topic":  "proposal:p1",
	}))
	waitForSubscribers(t, hub, "proposal:p1", 0)

	hub.Publish("proposal:p1", "vote_cast", nil)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_DesconexaoRemoveAssinaturas(t *testing.T) {
	hub := realtime.NewHub()
	conn := dialHub(t, hub)
	subscribe(t, conn, hub, "vault:v1")

	conn.Close()
	waitForSubscribers(t, hub, "vault:v1", 0)

	// Publicar sem assinantes não pode entrar em pânico nem bloquear.
	hub.Publish("vault:v1", "proposal_approved", nil)
}

func TestHub_MultiplosAssinantes(t *testing.T) {
	hub := realtime.NewHub()
	first := dialHub(t, hub)
	second := dialHub(t, hub)

	require.NoError(t, first.WriteJSON(map[string]string{"action": "subscribe", "topic": "vault:v1"}))
	require.NoError(t, second.WriteJSON(map[string]string{"action": "subscribe", "topic": "vault:v1"}))
	waitForSubscribers(t, hub, "vault:v1", 2)

	hub.Publish("vault:v1", "vote_cast", map[string]int{"yes_weight": 60})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var event realtime.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, "vote_cast", event.Event)
	}
}
