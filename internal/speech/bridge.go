package speech

import (
	"errors"
	"sync"
)

// Bridge is a Recognizer whose capability lives in a browser page.  Start,
// Stop and Abort queue commands the page collects with Commands; the page
// reports recognition events back through Deliver.  Every command and event
// carries the session number so events from an aborted session are dropped.
type Bridge struct {
	mu       sync.Mutex
	handlers Handlers
	session  uint64
	active   bool
	queue    []Command
}

// Command is an instruction for the page's recognition object.
type Command struct {
	Op      string `json:"op"` // start, stop or abort
	Session uint64 `json:"session"`
}

// Event is a recognition event posted by the page.
type Event struct {
	Session     uint64        `json:"session"`
	Type        string        `json:"type"` // start, result, error, end
	ResultIndex int           `json:"result_index"`
	Results     []Alternative `json:"results"`
	Error       string        `json:"error"`
}

// ErrUnknownEvent is returned by Deliver for an unrecognized event type.
var ErrUnknownEvent = errors.New("unknown recognition event")

// NewBridge returns an idle Bridge.
func NewBridge() *Bridge { return &Bridge{} }

func (b *Bridge) SetHandlers(h Handlers) {
	b.mu.Lock()
	b.handlers = h
	b.mu.Unlock()
}

func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		return ErrAlreadyStarted
	}
	b.session++
	b.active = true
	b.queue = append(b.queue, Command{Op: "start", Session: b.session})
	return nil
}

func (b *Bridge) Stop() { b.end("stop") }

func (b *Bridge) Abort() { b.end("abort") }

func (b *Bridge) end(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return
	}
	b.active = false
	b.queue = append(b.queue, Command{Op: op, Session: b.session})
}

// Commands drains the queued commands in order.
func (b *Bridge) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.queue
	b.queue = nil
	return out
}

// Active reports whether a session is open.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Deliver dispatches ev to the handlers.  It reports false when the event
// belongs to a session that is no longer open.
func (b *Bridge) Deliver(ev Event) (bool, error) {
	b.mu.Lock()
	if !b.active || ev.Session != b.session {
		b.mu.Unlock()
		return false, nil
	}
	h := b.handlers
	switch ev.Type {
	case "start", "result":
	case "error", "end":
		b.active = false
	default:
		b.mu.Unlock()
		return false, ErrUnknownEvent
	}
	b.mu.Unlock()

	switch ev.Type {
	case "start":
		if h.OnStart != nil {
			h.OnStart()
		}
	case "result":
		if h.OnResult != nil {
			h.OnResult(ResultEvent{ResultIndex: ev.ResultIndex, Results: ev.Results})
		}
	case "error":
		if h.OnError != nil {
			h.OnError(errors.New(ev.Error))
		}
	case "end":
		if h.OnEnd != nil {
			h.OnEnd()
		}
	}
	return true, nil
}
