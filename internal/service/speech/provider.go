package speech

// EventKind classifies recognition callbacks delivered by the platform.
type EventKind string

const (
	// EventInterim carries a provisional transcript fragment that may still
	// be revised.
	EventInterim EventKind = "interim"
	// EventFinal carries a finalized transcript fragment.
	EventFinal EventKind = "final"
	// EventError reports a platform failure mid-session.
	EventError EventKind = "error"
	// EventEnd marks the natural end of a recognition session.
	EventEnd EventKind = "end"
)

// Event is one recognition callback.
type Event struct {
	Kind       EventKind `json:"kind"`
	Transcript string    `json:"transcript,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Recognizer is a platform speech-to-text session factory. Sessions are
// exclusive: Start while a session is open fails at the platform level.
type Recognizer interface {
	// Start opens a non-continuous recognition session for the locale tag
	// and delivers interim and final fragments to the handler until the
	// session ends.
	Start(languageTag string, handler func(Event)) error
	// Stop ends the open session, causing a final EventEnd delivery.
	Stop()
	// Abort tears the session down without further events.
	Abort()
}

// Synthesizer is a platform text-to-speech surface.
type Synthesizer interface {
	// Speak vocalizes text in the given locale.
	Speak(text, languageTag string) error
	// Cancel stops the utterance currently playing, if any.
	Cancel()
}

// RecognitionError is a speech platform failure surfaced by a session.
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string {
	return "speech recognition failed: " + e.Reason
}
