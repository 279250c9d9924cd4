package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brmartins/sabia/internal/protocol"
	"github.com/brmartins/sabia/internal/resolver"
	"github.com/brmartins/sabia/internal/session"
)

// handleChatWS runs a realtime chat loop over one websocket connection.
// Each inbound client_message is resolved synchronously and answered with an
// assistant_message; resolver failures never close the socket, they arrive as
// degraded answers.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if sessionID == "" || userID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "session_id and user_id are required")
		return
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil || sess.UserID != userID {
		respondError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if sess.Status != session.StatusActive {
		respondError(w, http.StatusConflict, "session_ended", "session is no longer active")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("httpapi: ws read error for session %s: %v", sessionID, err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.countWS("inbound", "invalid")
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "bad_message",
				Message:   err.Error(),
			})
			continue
		}

		client, ok := msg.(protocol.ClientMessage)
		if !ok {
			s.countWS("inbound", "unexpected")
			s.writeWS(conn, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "unexpected_type",
				Message:   "only client_message is accepted",
			})
			continue
		}
		s.countWS("inbound", string(protocol.TypeClientMessage))

		res := s.resolver.Resolve(r.Context(), resolver.Request{
			UserID:    userID,
			SessionID: sessionID,
			Text:      client.Text,
		})
		if res.Source != resolver.SourceInvalid {
			_ = s.sessions.RecordTurn(sessionID, strings.TrimSpace(client.Text))
		}

		s.countWS("outbound", string(protocol.TypeAssistantMessage))
		if !s.writeWS(conn, protocol.AssistantMessage{
			Type:      protocol.TypeAssistantMessage,
			SessionID: sessionID,
			TurnID:    res.TurnID,
			Text:      res.Answer,
			Source:    string(res.Source),
			TSMs:      time.Now().UnixMilli(),
		}) {
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, v any) bool {
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("httpapi: ws write error: %v", err)
		return false
	}
	return true
}

func (s *Server) countWS(direction, msgType string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, msgType).Inc()
	}
}
