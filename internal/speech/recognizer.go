// Package speech turns a continuous speech-recognition capability into a
// start/stop toggle with a transcript buffer and a transient "listening"
// overlay.  The capability itself is injected as a Recognizer so the state
// machine can run against the browser (see Bridge) or a fake in tests.
package speech

import "errors"

// Alternative is the best guess for one result segment.
type Alternative struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`
}

// ResultEvent mirrors a recognition "result" event: Results holds every
// segment of the utterance so far and ResultIndex is the first one that
// changed.
type ResultEvent struct {
	ResultIndex int           `json:"result_index"`
	Results     []Alternative `json:"results"`
}

// Handlers are the callback slots a Recognizer reports through.
type Handlers struct {
	OnStart  func()
	OnResult func(ResultEvent)
	OnError  func(error)
	OnEnd    func()
}

// Recognizer is a speech-recognition capability.  At most one recognition
// session is open at a time: Start on an open session is an error, and after
// Stop or Abort the recognizer must not report events for that session.
// Handlers are never invoked synchronously from Start, Stop or Abort.
type Recognizer interface {
	Start() error
	Stop()
	Abort()
	SetHandlers(Handlers)
}

var (
	// ErrUnavailable is returned by every control when no recognizer exists.
	ErrUnavailable = errors.New("speech recognition not supported")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("speech capture closed")
	// ErrAlreadyStarted is returned by a Recognizer asked to open a second session.
	ErrAlreadyStarted = errors.New("recognition already started")
)
