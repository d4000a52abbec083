// Package voice exposes the speech bridge over a websocket. The browser owns
// the microphone and speakers; this handler relays recognition events in and
// speak commands out, and feeds finished transcripts into the conversation.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/gramacare/backend/internal/service/conversation"
	"github.com/gramacare/backend/internal/service/speech"
)

// Handler upgrades voice connections and runs one speech bridge per socket.
type Handler struct {
	store        *conversation.Store
	orchestrator *conversation.Orchestrator
	upgrader     websocket.Upgrader
}

// New creates the voice websocket handler.
func New(store *conversation.Store, orchestrator *conversation.Orchestrator) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the voice websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/voice", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// StartMessage opens a recognition session.
type StartMessage struct {
	Locale string `json:"locale"`
}

// TextMessage submits typed text through the conversation flow.
type TextMessage struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// ConfigMessage updates per-connection settings.
type ConfigMessage struct {
	Locale string `json:"locale"`
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

type connectionState struct {
	ws         *wsConn
	bridge     *speech.Bridge
	recognizer *remoteRecognizer
	locale     string
}

// handleWebSocket runs the read loop for one voice connection.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws := &wsConn{conn: conn}
	recognizer := &remoteRecognizer{ws: ws}
	synthesizer := &remoteSynthesizer{ws: ws}

	state := &connectionState{
		ws:         ws,
		recognizer: recognizer,
		locale:     speech.LocaleFromCode("en"),
	}
	state.bridge = speech.NewBridge(recognizer, synthesizer, speech.SubmitFunc(
		func(sctx context.Context, text, lang string) error {
			return h.submitTranscript(sctx, state, text, lang)
		},
	))
	defer state.bridge.Close()

	log.Printf("[voice] new connection from %s", r.RemoteAddr)

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, ws)

	h.sendInfo(ws, "connected", map[string]any{
		"locales": speech.SupportedLocales(),
		"locale":  state.locale,
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[voice] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			h.handleMessage(ctx, state, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "start":
		h.handleStart(ctx, state, msg.Data)
	case "stop":
		state.bridge.StopListening()
	case "recognition":
		h.handleRecognition(state, msg.Data)
	case "text":
		h.handleText(ctx, state, msg.Data)
	case "config":
		h.handleConfig(state, msg.Data)
	default:
		h.sendError(state.ws, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleStart(ctx context.Context, state *connectionState, raw json.RawMessage) {
	var start StartMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &start); err != nil {
			h.sendError(state.ws, "invalid start payload")
			return
		}
	}

	locale := start.Locale
	if locale == "" {
		locale = state.locale
	}

	if err := state.bridge.StartListening(ctx, locale); err != nil {
		if errors.Is(err, speech.ErrAlreadyListening) {
			h.sendError(state.ws, "already listening")
			return
		}
		h.sendError(state.ws, err.Error())
		return
	}

	state.locale = locale
	h.sendInfo(state.ws, "listening", map[string]any{"locale": locale})
}

func (h *Handler) handleRecognition(state *connectionState, raw json.RawMessage) {
	var ev speech.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.sendError(state.ws, "invalid recognition payload")
		return
	}
	state.recognizer.Deliver(ev)
}

func (h *Handler) handleText(ctx context.Context, state *connectionState, raw json.RawMessage) {
	var text TextMessage
	if err := json.Unmarshal(raw, &text); err != nil {
		h.sendError(state.ws, "invalid text payload")
		return
	}
	if text.Text == "" {
		return
	}

	lang := text.Lang
	if lang == "" {
		lang = speech.CodeFromLocale(state.locale)
	}
	if err := h.submitTranscript(ctx, state, text.Text, lang); err != nil {
		h.sendError(state.ws, err.Error())
	}
}

func (h *Handler) handleConfig(state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(state.ws, "invalid config payload")
		return
	}
	if cfg.Locale != "" {
		state.locale = cfg.Locale
	}
	h.sendInfo(state.ws, "config", map[string]any{"locale": state.locale})
}

// submitTranscript pushes one utterance into the conversation, reports the
// receipt, and speaks the reply once it resolves.
func (h *Handler) submitTranscript(ctx context.Context, state *connectionState, text, lang string) error {
	receipt, err := h.orchestrator.SendMessage(ctx, text, lang)
	if err != nil {
		return err
	}

	h.sendInfo(state.ws, "queued", map[string]any{
		"chatId":        receipt.ChatID,
		"userMessageId": receipt.UserMessageID,
		"placeholderId": receipt.PlaceholderID,
	})

	go h.speakReply(state, receipt)
	return nil
}

// speakReply waits for the send to resolve and vocalizes the bot reply.
func (h *Handler) speakReply(state *connectionState, receipt conversation.Receipt) {
	<-receipt.Done

	messages, err := h.store.Transcript(context.Background(), receipt.ChatID)
	if err != nil {
		log.Printf("[voice] transcript lookup failed for chat=%s: %v", receipt.ChatID, err)
		return
	}

	for _, msg := range messages {
		if msg.ID != receipt.PlaceholderID {
			continue
		}
		h.sendInfo(state.ws, "reply", map[string]any{
			"messageId": msg.ID,
			"text":      msg.Text,
			"lang":      msg.Lang,
		})
		if msg.Text != "" {
			state.bridge.Speak(msg.Text, msg.Lang)
		}
		return
	}
}

func (h *Handler) sendInfo(ws *wsConn, kind string, data map[string]any) {
	msg := outgoingMessage{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := ws.writeJSON(msg); err != nil {
		log.Printf("[voice] write info failed: %v", err)
	}
}

func (h *Handler) sendError(ws *wsConn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := ws.writeJSON(msg); err != nil {
		log.Printf("[voice] write error failed: %v", err)
	}
}

func (h *Handler) pingLoop(ctx context.Context, ws *wsConn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.writePing(); err != nil {
				return
			}
		}
	}
}
