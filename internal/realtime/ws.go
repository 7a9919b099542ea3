package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/your-org/streamforge/internal/hub"
)

const writeTimeout = 10 * time.Second

// clientCommand is what a connected client may send. Only subscribe is
// supported; membership ends with the connection.
type clientCommand struct {
	Action  string `json:"action"`
	VideoID string `json:"videoId"`
}

// Handler upgrades HTTP connections to websockets and binds each one to
// the subscriber registry for its lifetime.
type Handler struct {
	registry *hub.Registry
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(registry *hub.Registry, logger *zap.Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins, matching
			// the permissive CORS posture of the REST surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &wsSubscriber{id: uuid.NewString(), conn: ws}
	defer func() {
		h.registry.Leave(sub)
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.logger.Debug("ignoring malformed client command", zap.String("subscriber", sub.id))
			continue
		}
		if cmd.Action == "subscribe" && cmd.VideoID != "" {
			h.registry.Join(sub, cmd.VideoID)
		}
	}
}

// wsSubscriber adapts one websocket connection to hub.Subscriber.
// Writes are serialized; gorilla websockets allow one concurrent writer.
type wsSubscriber struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSubscriber) ID() string {
	return s.id
}

func (s *wsSubscriber) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
