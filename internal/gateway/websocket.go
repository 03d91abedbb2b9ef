package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

const maxFrameBytes = 1 << 20

// handleWebsocket answers each text frame {message, model} with one
// AgentResponse frame, or {error} when the turn fails.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return originAllowed(s.opts.Config.CORSOrigins, r.Header.Get("Origin")) },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway: websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("gateway: websocket closed", "err", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil || strings.TrimSpace(req.Message) == "" {
			if err := conn.WriteJSON(errorResponse{Error: "expected {\"message\": ..., \"model\": ...}"}); err != nil {
				return
			}
			continue
		}

		resp, err := s.chat(ctx, req)
		if err != nil {
			err = conn.WriteJSON(errorResponse{Error: err.Error()})
		} else {
			err = conn.WriteJSON(resp)
		}
		if err != nil {
			slog.Debug("gateway: websocket write failed", "err", err)
			return
		}
	}
}
