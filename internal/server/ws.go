package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/tracematch/internal/location"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LocateStream pushes every locate loop result to WebSocket clients as JSON.
type LocateStream struct {
	locator *location.Locator
	logger  *zap.Logger
}

// NewLocateStream creates a LocateStream fed by the given locator.
func NewLocateStream(l *location.Locator, logger *zap.Logger) *LocateStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocateStream{locator: l, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
// The latest result, if any, is sent first; after that each new result is forwarded.
func (h *LocateStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	results, unsubscribe := h.locator.Subscribe()
	defer unsubscribe()

	// Detect client disconnects by reading until error
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if current, ok := h.locator.Current(); ok {
		if err := h.write(conn, current); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case result, ok := <-results:
			if !ok {
				return
			}
			if err := h.write(conn, result); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *LocateStream) write(conn *websocket.Conn, result location.Result) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(result)
}
