// Package conversation holds the ordered log of messages exchanged with the
// chat assistant together with the pending indicator and the current show
// results.  A Conversation is owned by exactly one UI session.
package conversation

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// FallbackReply is appended as the assistant's answer whenever the chat API
// cannot be reached or returns an error.
const FallbackReply = "Sorry, I encountered an error. Please make sure the API is running and try again."

// ErrPending is returned by Send while a previous send has not resolved.
var ErrPending = errors.New("a message is already being sent")

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// Sender is the part of the API client a Conversation needs.
type Sender interface {
	SendMessage(ctx context.Context, text string) (model.ChatResponse, error)
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithClock overrides time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Conversation) { c.now = now }
}

// WithResultsHook registers fn to be called, outside the lock, each time the
// current result list is replaced.  It runs before the reply is appended and
// before Pending turns false.
func WithResultsHook(fn func([]model.ShowResult)) Option {
	return func(c *Conversation) { c.onResults = fn }
}

// Conversation is an append-only message log.  Mutations are serialized by
// mu; the network round trip runs without holding it so readers can render
// the user's message and the pending indicator while the reply is in flight.
type Conversation struct {
	sender    Sender
	now       func() time.Time
	onResults func([]model.ShowResult)

	mu       sync.Mutex
	messages []model.Message
	results  []model.ShowResult
	pending  bool
	seq      uint64
}

// New returns an empty Conversation that sends through s.
func New(s Sender, opts ...Option) *Conversation {
	c := &Conversation{sender: s, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends text as a user message, forwards it to the chat API and
// appends the assistant's reply (or FallbackReply on failure).  It returns
// ErrPending without touching the log if another send is still in flight.
// An API failure is not returned as an error: it is part of the conversation.
func (c *Conversation) Send(ctx context.Context, text string) error {
	text, err := c.begin(text)
	if err != nil {
		return err
	}
	c.finish(ctx, text)
	return nil
}

// Start is Send without waiting for the reply.  When it returns the user's
// message is in the log and Pending reports true; done is closed once the
// reply has been appended.
func (c *Conversation) Start(ctx context.Context, text string) (done <-chan struct{}, err error) {
	text, err = c.begin(text)
	if err != nil {
		return nil, err
	}
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		c.finish(ctx, text)
	}()
	return ch, nil
}

// begin validates text, appends it and marks the conversation pending.
func (c *Conversation) begin(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return "", ErrPending
	}
	c.appendLocked(text, model.SenderUser)
	c.pending = true
	return text, nil
}

// finish performs the round trip.  The results hook runs while the send is
// still pending, so a reader that sees the reply also sees its results and
// hooks of consecutive sends never overlap.
func (c *Conversation) finish(ctx context.Context, text string) {
	resp, err := c.sender.SendMessage(ctx, text)

	var replaced []model.ShowResult
	// an empty list is not a replacement; the previous results stay on screen
	if err == nil {
		if rs := resp.ShowResults(); len(rs) > 0 {
			replaced = append([]model.ShowResult(nil), rs...)
		}
	}
	if c.onResults != nil && replaced != nil {
		c.onResults(append([]model.ShowResult(nil), replaced...))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		log.Printf("conversation: send failed: %v", err)
		c.appendLocked(FallbackReply, model.SenderAssistant)
	} else {
		c.appendLocked(resp.Response, model.SenderAssistant)
		if replaced != nil {
			c.results = replaced
		}
	}
	c.pending = false
}

func (c *Conversation) appendLocked(text string, sender model.Sender) {
	c.seq++
	c.messages = append(c.messages, model.Message{
		ID:        newID(),
		Seq:       c.seq,
		Text:      text,
		Sender:    sender,
		Timestamp: c.now(),
	})
}

// Messages returns a copy of the log in insertion order.
func (c *Conversation) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.messages...)
}

// Pending reports whether a send is in flight.
func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Results returns a copy of the current show results.
func (c *Conversation) Results() []model.ShowResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ShowResult(nil), c.results...)
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
