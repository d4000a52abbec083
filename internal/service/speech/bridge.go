package speech

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

// state of the recognition machine. Transitions are driven entirely by
// platform callbacks plus StartListening/StopListening.
type state int

const (
	stateIdle state = iota
	stateListening
	stateFinalizing
)

var ErrAlreadyListening = errors.New("recognition session already open")

// Submitter receives the accumulated transcript of a finished session.
// Satisfied by the conversation orchestrator.
type Submitter interface {
	Submit(ctx context.Context, text, lang string) error
}

// SubmitFunc adapts a function to the Submitter interface.
type SubmitFunc func(ctx context.Context, text, lang string) error

func (f SubmitFunc) Submit(ctx context.Context, text, lang string) error {
	return f(ctx, text, lang)
}

// Bridge wraps platform speech-to-text and text-to-speech behind a
// capability check. On platforms without speech support both providers are
// nil: Supported reports false and every operation is a silent no-op, never
// an error.
//
// A session accumulates final transcript fragments. When the session ends,
// by explicit stop, natural end of speech or a platform error, the
// non-empty transcript is submitted as a message send with the language
// mapped from the session's locale tag, then the buffer is cleared. The
// auto-submit is a transition action of the state machine, so the error
// path cannot lose what was already transcribed.
type Bridge struct {
	mu          sync.Mutex
	recognizer  Recognizer
	synthesizer Synthesizer
	submitter   Submitter

	st         state
	sessionTag string
	finals     []string
	interim    string
}

// NewBridge builds a bridge over the platform providers. Either provider
// may be nil, which disables the corresponding capability.
func NewBridge(recognizer Recognizer, synthesizer Synthesizer, submitter Submitter) *Bridge {
	return &Bridge{
		recognizer:  recognizer,
		synthesizer: synthesizer,
		submitter:   submitter,
	}
}

// Supported reports whether speech input is available. It never errors, on
// any platform, no matter how often it is asked.
func (b *Bridge) Supported() bool {
	return b.recognizer != nil
}

// CanSpeak reports whether speech output is available.
func (b *Bridge) CanSpeak() bool {
	return b.synthesizer != nil
}

// Listening reports whether a recognition session is open.
func (b *Bridge) Listening() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st == stateListening
}

// Transcript returns the text accumulated so far, final fragments first,
// the current interim fragment last.
func (b *Bridge) Transcript() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transcriptLocked()
}

// StartListening opens a recognition session for the locale tag. Without
// platform support it is a no-op; while a session is already open it
// returns ErrAlreadyListening.
func (b *Bridge) StartListening(ctx context.Context, languageTag string) error {
	if !b.Supported() {
		return nil
	}

	b.mu.Lock()
	if b.st != stateIdle {
		b.mu.Unlock()
		return ErrAlreadyListening
	}
	b.st = stateListening
	b.sessionTag = languageTag
	b.finals = b.finals[:0]
	b.interim = ""
	b.mu.Unlock()

	if err := b.recognizer.Start(languageTag, func(ev Event) {
		b.handleEvent(ctx, ev)
	}); err != nil {
		b.mu.Lock()
		b.st = stateIdle
		b.mu.Unlock()
		return err
	}
	return nil
}

// StopListening ends the open session. The platform answers with an end
// event, which triggers the auto-submit.
func (b *Bridge) StopListening() {
	if !b.Supported() {
		return
	}
	b.mu.Lock()
	open := b.st == stateListening
	b.mu.Unlock()
	if open {
		b.recognizer.Stop()
	}
}

// Speak vocalizes text in the locale mapped from the short language code.
// At most one utterance plays at a time: any current one is cancelled
// before the new one starts.
func (b *Bridge) Speak(text, langCode string) {
	if !b.CanSpeak() || strings.TrimSpace(text) == "" {
		return
	}
	b.synthesizer.Cancel()
	if err := b.synthesizer.Speak(text, LocaleFromCode(langCode)); err != nil {
		log.Printf("[speech] synthesis failed: %v", err)
	}
}

// Close releases the platform handles: the open recognition session is
// aborted without submitting and pending utterances are cancelled.
func (b *Bridge) Close() {
	if b.recognizer != nil {
		b.recognizer.Abort()
	}
	if b.synthesizer != nil {
		b.synthesizer.Cancel()
	}
	b.mu.Lock()
	b.st = stateIdle
	b.finals = nil
	b.interim = ""
	b.mu.Unlock()
}

// handleEvent is the single transition function for platform callbacks.
func (b *Bridge) handleEvent(ctx context.Context, ev Event) {
	b.mu.Lock()
	if b.st != stateListening {
		b.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventInterim:
		b.interim = ev.Transcript
		b.mu.Unlock()
	case EventFinal:
		if fragment := strings.TrimSpace(ev.Transcript); fragment != "" {
			b.finals = append(b.finals, fragment)
		}
		b.interim = ""
		b.mu.Unlock()
	case EventError:
		// A mid-session failure still submits what was transcribed.
		log.Printf("[speech] recognition error: %v", &RecognitionError{Reason: ev.Message})
		b.finishLocked(ctx)
	case EventEnd:
		b.finishLocked(ctx)
	default:
		b.mu.Unlock()
	}
}

// finishLocked runs the finalizing transition: submit-if-non-empty, then
// clear the buffer and return to idle. Called with the mutex held; releases
// it before submitting so the submitter may call back into the bridge.
func (b *Bridge) finishLocked(ctx context.Context) {
	b.st = stateFinalizing
	transcript := strings.TrimSpace(strings.Join(b.finals, " "))
	lang := CodeFromLocale(b.sessionTag)
	b.finals = b.finals[:0]
	b.interim = ""
	b.st = stateIdle
	b.mu.Unlock()

	if transcript == "" || b.submitter == nil {
		return
	}
	if err := b.submitter.Submit(ctx, transcript, lang); err != nil {
		log.Printf("[speech] transcript submit failed: %v", err)
	}
}

func (b *Bridge) transcriptLocked() string {
	parts := make([]string, 0, len(b.finals)+1)
	parts = append(parts, b.finals...)
	if b.interim != "" {
		parts = append(parts, b.interim)
	}
	return strings.Join(parts, " ")
}
