package voice

import (
	"sync"
	"time"

	"github.com/gramacare/backend/internal/service/speech"
)

// remoteRecognizer proxies recognition to the connected client. Start and
// Stop become frames the client acts on; the client answers with recognition
// events that Deliver forwards to the bridge.
type remoteRecognizer struct {
	ws *wsConn

	mu      sync.Mutex
	handler func(speech.Event)
}

func (r *remoteRecognizer) Start(languageTag string, handler func(speech.Event)) error {
	r.mu.Lock()
	r.handler = handler
	r.mu.Unlock()

	return r.ws.writeJSON(outgoingMessage{
		Type:      "listen",
		Data:      map[string]string{"locale": languageTag},
		Timestamp: time.Now().Unix(),
	})
}

func (r *remoteRecognizer) Stop() {
	// The client owns the microphone; it answers with an end event.
	r.ws.writeJSON(outgoingMessage{
		Type:      "stop_listening",
		Timestamp: time.Now().Unix(),
	})
}

func (r *remoteRecognizer) Abort() {
	r.mu.Lock()
	r.handler = nil
	r.mu.Unlock()

	r.ws.writeJSON(outgoingMessage{
		Type:      "abort_listening",
		Timestamp: time.Now().Unix(),
	})
}

// Deliver forwards a client recognition event to the active session, if any.
func (r *remoteRecognizer) Deliver(ev speech.Event) {
	r.mu.Lock()
	handler := r.handler
	if ev.Kind == speech.EventEnd || ev.Kind == speech.EventError {
		r.handler = nil
	}
	r.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// remoteSynthesizer asks the client to vocalize text.
type remoteSynthesizer struct {
	ws *wsConn
}

func (s *remoteSynthesizer) Speak(text, languageTag string) error {
	return s.ws.writeJSON(outgoingMessage{
		Type:      "speak",
		Data:      map[string]string{"text": text, "locale": languageTag},
		Timestamp: time.Now().Unix(),
	})
}

func (s *remoteSynthesizer) Cancel() {
	s.ws.writeJSON(outgoingMessage{
		Type:      "cancel_speak",
		Timestamp: time.Now().Unix(),
	})
}
