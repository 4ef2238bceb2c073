package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-assistant/internal/booking"
	"github.com/iliyamo/cinema-assistant/internal/model"
	"github.com/iliyamo/cinema-assistant/internal/results"
	"github.com/iliyamo/cinema-assistant/internal/speech"
)

type stubSender struct {
	mu   sync.Mutex
	sent []string
	resp model.ChatResponse
}

func (s *stubSender) SendMessage(ctx context.Context, text string) (model.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return s.resp, nil
}

func (s *stubSender) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func newRegistry(t *testing.T, sender *stubSender) *Registry {
	t.Helper()
	st, err := results.NewStore(results.StoreTypeMemory)
	require.NoError(t, err)
	r := NewRegistry(Deps{Sender: sender, Store: st}, time.Minute)
	t.Cleanup(r.Close)
	return r
}

func leoReply() model.ChatResponse {
	return model.ChatResponse{Response: "Here are some options", Data: &model.ChatData{Results: []model.ShowResult{
		{MovieName: "Leo", TheaterName: "PVR", Showtime: "7:00 PM", Price: "₹180", IsAvailable: true},
	}}}
}

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := newRegistry(t, &stubSender{})
	a := r.Get("abc")
	b := r.Get("abc")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_SweepEvictsIdle(t *testing.T) {
	r := newRegistry(t, &stubSender{})
	now := time.Now()
	r.now = func() time.Time { return now }

	s := r.Get("old")
	capture := s.MountVoice(true)
	require.NoError(t, capture.Start())
	_, bridge := s.Voice()
	require.True(t, bridge.Active())

	now = now.Add(2 * time.Minute)
	r.Get("fresh")
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())

	assert.False(t, bridge.Active(), "evicted session released its recognition session")
	assert.ErrorIs(t, capture.Start(), speech.ErrClosed)
	assert.Error(t, s.Context().Err())
}

func TestSession_ResultsAreIndexed(t *testing.T) {
	sender := &stubSender{resp: leoReply()}
	r := newRegistry(t, sender)
	s := r.Get("v")

	require.NoError(t, s.Conversation.Send(context.Background(), "Show me movies in Coimbatore"))
	v := s.ResultsView()
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Leo / PVR / 7:00 PM / ₹180 / Available", v.Cards[0].Line())
	require.NotEmpty(t, v.Cards[0].Key)

	d, err := s.StartBooking(context.Background(), v.Cards[0].Key, 250)
	require.NoError(t, err)
	assert.Equal(t, 180, d.Show.PricePerSeat)
	assert.Equal(t, "Leo", d.Show.Movie)

	_, err = s.StartBooking(context.Background(), "nope", 250)
	assert.ErrorIs(t, err, ErrNoShow)
}

func TestSession_BookingLifecycle(t *testing.T) {
	r := newRegistry(t, &stubSender{resp: leoReply()})
	s := r.Get("v")
	assert.False(t, s.WithBooking(func(*booking.Draft) {}))

	require.NoError(t, s.Conversation.Send(context.Background(), "hi"))
	key := s.ResultKeys()[0]
	_, err := s.StartBooking(context.Background(), key, 250)
	require.NoError(t, err)
	ok := s.WithBooking(func(d *booking.Draft) { require.NoError(t, d.Toggle("A1")) })
	assert.True(t, ok)

	// reopening the booking page starts over
	_, err = s.StartBooking(context.Background(), key, 250)
	require.NoError(t, err)
	s.WithBooking(func(d *booking.Draft) { assert.Empty(t, d.Selected()) })

	s.DiscardBooking()
	assert.False(t, s.WithBooking(func(*booking.Draft) {}))
}

func TestSession_VoiceFeedsConversation(t *testing.T) {
	sender := &stubSender{resp: model.ChatResponse{Response: "ok"}}
	r := newRegistry(t, sender)
	s := r.Get("v")

	c := s.MountVoice(true)
	assert.Same(t, c, s.MountVoice(false), "capability is checked once")
	require.NoError(t, c.Start())
	_, b := s.Voice()
	cmds := b.Commands()
	require.Len(t, cmds, 1)

	ok, err := b.Deliver(speech.Event{Session: cmds[0].Session, Type: "result",
		Results: []speech.Alternative{{Transcript: "Book Leo ", IsFinal: true}}})
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool { return s.Conversation.Len() == 2 && !s.Conversation.Pending() },
		time.Second, 5*time.Millisecond)
	msgs := s.Conversation.Messages()
	assert.Equal(t, "Book Leo", msgs[0].Text)
	assert.Equal(t, []string{"Book Leo"}, sender.texts())
}

func TestSession_VoiceUnsupported(t *testing.T) {
	r := newRegistry(t, &stubSender{})
	s := r.Get("v")
	c := s.MountVoice(false)
	assert.False(t, c.Available())
	assert.ErrorIs(t, c.Toggle(), speech.ErrUnavailable)
	_, b := s.Voice()
	assert.Nil(t, b)
}

// gatedStore holds every Put until gate is closed.
type gatedStore struct {
	results.Store
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) Put(ctx context.Context, show model.ShowResult) (string, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.gate
	return g.Store.Put(ctx, show)
}

func TestSession_ResultsLandWithTheReply(t *testing.T) {
	mem, err := results.NewStore(results.StoreTypeMemory)
	require.NoError(t, err)
	st := &gatedStore{Store: mem, entered: make(chan struct{}, 1), gate: make(chan struct{})}
	r := NewRegistry(Deps{Sender: &stubSender{resp: leoReply()}, Store: st}, time.Minute)
	t.Cleanup(r.Close)
	s := r.Get("v")

	done, err := s.Conversation.Start(context.Background(), "Show me movies in Coimbatore")
	require.NoError(t, err)
	<-st.entered

	// while the results are being indexed the reply is not visible yet
	assert.True(t, s.Conversation.Pending())
	assert.Equal(t, 1, s.Conversation.Len())
	assert.True(t, s.ResultsView().Empty)

	close(st.gate)
	<-done
	assert.False(t, s.Conversation.Pending())
	assert.Equal(t, 2, s.Conversation.Len())
	v := s.ResultsView()
	require.Len(t, v.Cards, 1)
	assert.NotEmpty(t, v.Cards[0].Key)
}
