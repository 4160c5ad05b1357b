package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kringlelabs/kringle/pkg/errorsx"
	"github.com/kringlelabs/kringle/pkg/turn"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The chat widget is served from arbitrary origins during
	// development; there is nothing privileged behind this endpoint.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsTurnMessage struct {
	ChildID   string `json:"child_id"`
	NameHint  string `json:"name_hint"`
	Utterance string `json:"utterance"`
}

type wsReplyMessage struct {
	Reply       string `json:"reply"`
	AudioB64    string `json:"audio_b64,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// handleWebsocket runs an interactive chat session: one JSON message
// per turn, one JSON reply back. The session id doubles as the child id
// when the client does not send one.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	s.log.Info("websocket session started", slog.String("session_id", sessionID))

	for {
		var msg wsTurnMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("websocket read failed",
					slog.String("session_id", sessionID),
					slog.String("error", err.Error()))
			}
			return
		}

		childID := msg.ChildID
		if childID == "" {
			childID = sessionID
		}
		result := s.orch.HandleTurn(r.Context(), turn.Request{
			ChildID:   childID,
			NameHint:  msg.NameHint,
			Utterance: msg.Utterance,
			TraceID:   uuid.NewString(),
		})

		reply := wsReplyMessage{Reply: result.Reply}
		if s.cfg.SpeakReplies && s.synthesizer != nil {
			if audio, synthErr := s.synthesizer.Synthesize(r.Context(), result.Reply); synthErr == nil {
				reply.AudioB64 = base64.StdEncoding.EncodeToString(audio)
				reply.ContentType = s.synthesizer.ContentType()
			}
		}
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Warn("websocket write failed",
				slog.String("reason", string(errorsx.ReasonTransportSend)),
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
			return
		}
	}
}
