// Package session keeps the per-visitor UI state of the assistant: the
// conversation, the voice capture and the booking draft.  In the browser this
// state would be component-local; here each visitor gets one Session in a
// Registry, addressed by the id in their signed cookie.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/cinema-assistant/internal/booking"
	"github.com/iliyamo/cinema-assistant/internal/conversation"
	"github.com/iliyamo/cinema-assistant/internal/model"
	"github.com/iliyamo/cinema-assistant/internal/results"
	"github.com/iliyamo/cinema-assistant/internal/speech"
)

// Session is one visitor's UI state.
type Session struct {
	ID           string
	Conversation *conversation.Conversation

	ctx    context.Context
	cancel context.CancelFunc
	store  results.Store
	delay  time.Duration

	mu       sync.Mutex
	shown    []model.ShowResult // results and their keys, replaced together
	keys     []string
	voice    *speech.Capture
	bridge   *speech.Bridge
	draft    *booking.Draft
	flash    string
	lastSeen time.Time
}

func newSession(id string, deps Deps, now time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{ID: id, ctx: ctx, cancel: cancel, store: deps.Store, delay: deps.DismissDelay, lastSeen: now}
	s.Conversation = conversation.New(deps.Sender, conversation.WithResultsHook(s.indexResults))
	return s
}

// indexResults stores a freshly replaced result set so each card can link to
// its detail page by key.
func (s *Session) indexResults(list []model.ShowResult) {
	keys, err := results.Index(s.ctx, s.store, list)
	if err != nil {
		log.Printf("session %s: indexing results failed: %v", s.ID, err)
		keys = nil
	}
	s.mu.Lock()
	s.shown = list
	s.keys = keys
	s.mu.Unlock()
}

// Context is cancelled when the session is evicted.
func (s *Session) Context() context.Context { return s.ctx }

// ResultKeys returns the store keys of the current results, by index.
func (s *Session) ResultKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// ResultsView projects the current results with their keys.
func (s *Session) ResultsView() results.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return results.Project(s.shown, s.keys)
}

// MountVoice performs the one capability check of the page.  The first call
// decides: a page without speech recognition leaves the capture Unavailable
// for the rest of the session.  Later calls return the existing capture.
func (s *Session) MountVoice(supported bool) *speech.Capture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice != nil {
		return s.voice
	}
	// The transcript is sent off the recognition event's request; the page
	// polls /state until the reply lands.
	send := func(text string) {
		if _, err := s.Conversation.Start(s.ctx, text); err != nil {
			log.Printf("session %s: voice transcript dropped: %v", s.ID, err)
		}
	}
	if !supported {
		s.voice = speech.New(nil, send)
		return s.voice
	}
	s.bridge = speech.NewBridge()
	s.voice = speech.New(s.bridge, send, speech.WithDismissDelay(s.delay))
	return s.voice
}

// Voice returns the capture and its browser bridge; both are nil before
// MountVoice and the bridge is nil when speech is unsupported.
func (s *Session) Voice() (*speech.Capture, *speech.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice, s.bridge
}

// ErrNoShow is returned by StartBooking for a key the store does not know.
var ErrNoShow = errors.New("show not found")

// StartBooking opens a fresh draft for the show stored under key,
// discarding any previous draft.
func (s *Session) StartBooking(ctx context.Context, key string, defaultPrice int) (*booking.Draft, error) {
	show, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoShow
	}
	return s.OpenBooking(booking.Show{
		Key:          key,
		Movie:        show.MovieName,
		Theater:      show.TheaterName,
		Showtime:     show.Showtime,
		PricePerSeat: booking.PriceFromDisplay(show.Price.String(), defaultPrice),
	}), nil
}

// OpenBooking replaces the draft with a fresh one for show.
func (s *Session) OpenBooking(show booking.Show) *booking.Draft {
	d := booking.NewDraft(show)
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
	return d
}

// WithBooking runs fn on the current draft under the session lock.  ok is
// false when there is no draft.
func (s *Session) WithBooking(fn func(d *booking.Draft)) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return false
	}
	fn(s.draft)
	return true
}

// DiscardBooking drops the draft; navigating away from the booking page
// does this without confirmation.
func (s *Session) DiscardBooking() {
	s.mu.Lock()
	s.draft = nil
	s.mu.Unlock()
}

// SetFlash stores a one-time notice for the next page render.
func (s *Session) SetFlash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

// TakeFlash returns and clears the pending notice.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// close releases the voice capture and cancels in-flight work.
func (s *Session) close() {
	s.mu.Lock()
	voice := s.voice
	s.draft = nil
	s.mu.Unlock()
	if voice != nil {
		_ = voice.Close()
	}
	s.cancel()
}
