package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/models"
)

// Greeting is the first frame of every assistant conversation
const Greeting = "Hello! How can I help you with your health today?"

// Assistant frame types
const (
	FrameGreeting  = "greeting"
	FrameMessage   = "message"
	FrameAnalysis  = "analysis"
	FrameListening = "listening"
	FrameError     = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// AssistantMessage is a frame exchanged with the assistant widget
type AssistantMessage struct {
	Type      string                 `json:"type"`
	Data      string                 `json:"data,omitempty"`
	Listening *bool                  `json:"listening,omitempty"`
	Result    *models.AnalysisResult `json:"result,omitempty"`
}

func (s *Server) handleAssistantWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("assistant websocket connected", "remote_addr", r.RemoteAddr)

	if err := s.sendAssistantMessage(conn, AssistantMessage{Type: FrameGreeting, Data: Greeting}); err != nil {
		return
	}

	// cancelled when the client goes away so an in-flight analysis stops
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	incoming := make(chan []byte)
	go func() {
		defer close(incoming)
		defer cancel()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}
			select {
			case incoming <- raw:
			case <-ctx.Done():
				return
			}
		}
	}()

	listening := false
	for raw := range incoming {
		var msg AssistantMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			s.sendAssistantError(conn, "invalid message format")
			continue
		}

		var reply AssistantMessage
		switch msg.Type {
		case FrameMessage:
			reply = s.answerAssistant(ctx, msg.Data)
		case FrameListening:
			if msg.Listening != nil {
				listening = *msg.Listening
			} else {
				listening = !listening
			}
			state := listening
			reply = AssistantMessage{Type: FrameListening, Listening: &state}
		default:
			reply = AssistantMessage{Type: FrameError, Data: "unknown message type: " + msg.Type}
		}

		if ctx.Err() != nil {
			break
		}
		if err := s.sendAssistantMessage(conn, reply); err != nil {
			break
		}
	}

	slog.Info("assistant websocket disconnected", "remote_addr", r.RemoteAddr)
}

// answerAssistant runs a typed health concern through the analysis service
func (s *Server) answerAssistant(ctx context.Context, text string) AssistantMessage {
	if s.services.Analyzer == nil {
		return AssistantMessage{Type: FrameError, Data: "analysis service is not configured"}
	}

	result, err := analysis.Request(ctx, s.services.Analyzer, strings.TrimSpace(text), nil)
	if err != nil {
		slog.Warn("assistant analysis failed", "error", err)
		if errors.Is(err, analysis.ErrValidation) {
			return AssistantMessage{Type: FrameError, Data: analysis.ValidationMessage}
		}
		return AssistantMessage{Type: FrameError, Data: err.Error()}
	}
	return AssistantMessage{Type: FrameAnalysis, Result: result}
}

func (s *Server) sendAssistantMessage(conn *websocket.Conn, msg AssistantMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal assistant message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send assistant message", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendAssistantError(conn *websocket.Conn, message string) {
	s.sendAssistantMessage(conn, AssistantMessage{
		Type: FrameError,
		Data: message,
	})
}
