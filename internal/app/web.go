package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

// RunWeb serves a browser live view of the capture: a JSON endpoint with the
// latest per-source snapshot and a websocket that pushes every update.
func RunWeb(cfg *config.Config) error {
	var (
		mu     sync.RWMutex
		latest = make(map[string]sample.LiveSnapshot)
	)

	hub := newWSHub()

	// 1) Subscribe to the capture's telemetry.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker()).
		SetClientID("windtunnel-web")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker())

	token := client.Subscribe("windtunnel/live/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap sample.LiveSnapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("web: snapshot unmarshal error: %v", err)
			return
		}
		mu.Lock()
		latest[snap.Source] = snap
		mu.Unlock()
		hub.broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Println("web: subscribed to windtunnel/live/#")

	// 2) JSON API: latest snapshot per source.
	http.HandleFunc("/api/live", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if len(latest) == 0 {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(latest); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 3) Websocket push of every snapshot as it arrives.
	http.HandleFunc("/ws", hub.handle)

	// 4) Static files from ./web as the root.
	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := cfg.WebListenAddr()
	log.Printf("web: listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

// wsHub fans snapshot payloads out to connected browsers.
type wsHub struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func newWSHub() *wsHub {
	return &wsHub{
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *wsHub) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	// Reads only detect disconnects; browsers don't send data.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

func (h *wsHub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *wsHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.conns, conn)
}
