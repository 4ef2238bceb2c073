package speech

import (
	"log"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle position of a Capture.
type State int

const (
	Idle State = iota
	Listening
	Finalizing
	Unavailable
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Finalizing:
		return "finalizing"
	case Unavailable:
		return "unavailable"
	}
	return "unknown"
}

// MarshalText lets State render as its name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// DefaultDismissDelay keeps the overlay up long enough to read the final transcript.
const DefaultDismissDelay = 800 * time.Millisecond

// Snapshot is what the UI renders.
type Snapshot struct {
	State          State  `json:"state"`
	Transcript     string `json:"transcript"`      // interim text being recognized
	Caption        string `json:"caption"`         // final text shown while finalizing
	OverlayVisible bool   `json:"overlay_visible"` // "listening" popup
}

// Option configures a Capture.
type Option func(*Capture)

// WithDismissDelay sets how long the overlay lingers after a final
// transcript.  Zero or negative dismisses it immediately.
func WithDismissDelay(d time.Duration) Option {
	return func(c *Capture) { c.dismissDelay = d }
}

// Capture is the voice-input state machine.
//
//	Idle --Start--> Listening --final--> Finalizing --delay--> Idle
//	Listening --Stop/Cancel/error/end--> Idle
//	Unavailable is entered at construction when there is no recognizer and never left.
type Capture struct {
	rec          Recognizer
	send         func(string)
	dismissDelay time.Duration

	mu         sync.Mutex
	state      State
	transcript string
	caption    string
	overlay    bool
	open       bool // recognizer session acquired and not yet released
	gen        uint64
	timer      *time.Timer
	closed     bool
}

// New builds a Capture over rec.  Finalized transcripts are passed to send,
// trimmed, exactly once each.  A nil rec yields a Capture that stays
// Unavailable; its controls return ErrUnavailable and never pretend to listen.
func New(rec Recognizer, send func(string), opts ...Option) *Capture {
	c := &Capture{rec: rec, send: send, dismissDelay: DefaultDismissDelay}
	for _, opt := range opts {
		opt(c)
	}
	if rec == nil {
		c.state = Unavailable
		return c
	}
	rec.SetHandlers(Handlers{
		OnStart:  c.onStart,
		OnResult: c.onResult,
		OnError:  c.onError,
		OnEnd:    c.onEnd,
	})
	return c
}

// Available reports whether a recognizer exists.
func (c *Capture) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != Unavailable
}

// Snapshot returns the current render state.
func (c *Capture) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Transcript: c.transcript, Caption: c.caption, OverlayVisible: c.overlay}
}

// Toggle starts listening from Idle and stops from Listening or Finalizing.
func (c *Capture) Toggle() error {
	c.mu.Lock()
	listening := c.state == Listening || c.state == Finalizing
	c.mu.Unlock()
	if listening {
		return c.Stop()
	}
	return c.Start()
}

// Start opens a recognition session.  Starting while already Listening is a
// no-op, so two starts in a row leave exactly one open session.  A session
// still open from a finalized utterance is aborted before a new one is opened.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usableLocked(); err != nil {
		return err
	}
	if c.state == Listening {
		return nil
	}
	c.releaseLocked(true)
	c.transcript = ""
	c.caption = ""
	if err := c.rec.Start(); err != nil {
		c.state = Idle
		c.overlay = false
		return err
	}
	c.gen++
	c.open = true
	c.state = Listening
	c.overlay = true
	return nil
}

// Stop ends listening without forwarding anything.  The in-progress
// transcript is discarded and the overlay is dismissed at once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.usableLocked(); err != nil {
		return err
	}
	c.releaseLocked(false)
	c.resetLocked()
	return nil
}

// Cancel is the overlay's cancel button; it behaves like Stop.
func (c *Capture) Cancel() error { return c.Stop() }

// Close releases the recognizer.  It is safe to call more than once and the
// Capture is unusable afterwards.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.rec != nil {
		c.releaseLocked(true)
		c.resetLocked()
	}
	return nil
}

func (c *Capture) usableLocked() error {
	if c.state == Unavailable {
		return ErrUnavailable
	}
	if c.closed {
		return ErrClosed
	}
	return nil
}

// releaseLocked gives the recognizer session back, aborting rather than
// stopping when abort is set, and cancels a pending overlay dismissal.
func (c *Capture) releaseLocked(abort bool) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.open {
		return
	}
	if abort {
		c.rec.Abort()
	} else {
		c.rec.Stop()
	}
	c.open = false
}

func (c *Capture) resetLocked() {
	c.state = Idle
	c.transcript = ""
	c.caption = ""
	c.overlay = false
}

func (c *Capture) onStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Listening {
		c.overlay = true
	}
}

func (c *Capture) onResult(ev ResultEvent) {
	c.mu.Lock()
	if c.state != Listening {
		c.mu.Unlock()
		return
	}
	var interim, final strings.Builder
	from := ev.ResultIndex
	if from < 0 {
		from = 0
	}
	for i := from; i < len(ev.Results); i++ {
		r := ev.Results[i]
		if r.IsFinal {
			final.WriteString(r.Transcript)
			final.WriteString(" ")
		} else {
			interim.WriteString(r.Transcript)
		}
	}
	if final.Len() == 0 {
		c.transcript = interim.String()
		c.mu.Unlock()
		return
	}

	text := strings.TrimSpace(final.String())
	c.transcript = ""
	c.caption = text
	c.state = Finalizing
	c.scheduleDismissLocked()
	send := c.send
	c.mu.Unlock()

	if text != "" && send != nil {
		send(text)
	}
}

// scheduleDismissLocked returns to Idle after the dismiss delay unless a
// newer session has started in between.
func (c *Capture) scheduleDismissLocked() {
	if c.dismissDelay <= 0 {
		c.releaseLocked(false)
		c.resetLocked()
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.dismissDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen || c.state != Finalizing {
			return
		}
		c.timer = nil
		c.releaseLocked(false)
		c.resetLocked()
	})
}

func (c *Capture) onError(err error) {
	log.Printf("speech: recognition error: %v", err)
	c.endListening()
}

func (c *Capture) onEnd() { c.endListening() }

// endListening handles the recognizer closing the session on its own.
func (c *Capture) endListening() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Listening:
		c.open = false
		c.resetLocked()
	case Finalizing:
		// overlay stays until the dismiss timer fires
		c.open = false
	}
}
