package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-assistant/internal/apiclient"
	"github.com/iliyamo/cinema-assistant/internal/config"
	"github.com/iliyamo/cinema-assistant/internal/handler"
	"github.com/iliyamo/cinema-assistant/internal/health"
	"github.com/iliyamo/cinema-assistant/internal/middleware"
	"github.com/iliyamo/cinema-assistant/internal/model"
	"github.com/iliyamo/cinema-assistant/internal/results"
	"github.com/iliyamo/cinema-assistant/internal/router"
	"github.com/iliyamo/cinema-assistant/internal/session"
	"github.com/iliyamo/cinema-assistant/internal/view"
)

const leoReply = `{"user_query":"Show me movies in Coimbatore","response":"Here are movies in Coimbatore",
"data":{"count":1,"date":"2025-01-10","results":[{"theater_name":"PVR Cinemas","theater_address":"Brookefields Mall",
"movie_name":"Leo","movie_language":"Tamil","showtime":"7:00 PM","price":"₹180","availability":"Available","is_available":true}]}}`

// fakeAPI is the remote chat API.  Chat replies wait on gate when it is set.
type fakeAPI struct {
	mu      sync.Mutex
	healthy bool
	chatErr bool
	gate    chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	healthy, chatErr, gate := f.healthy, f.chatErr, f.gate
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/health":
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	case "/api/movies":
		_, _ = io.WriteString(w, `[{"id":"leo","name":"Leo"}]`)
	case "/api/chat":
		if gate != nil {
			<-gate
		}
		if chatErr {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, leoReply)
	default:
		http.NotFound(w, r)
	}
}

type fixture struct {
	e   *echo.Echo
	api *fakeAPI
}

func newFixture(t *testing.T, api *fakeAPI, limit config.RateLimitConfig) *fixture {
	t.Helper()
	store, err := results.NewStore(results.StoreTypeMemory)
	require.NoError(t, err)
	return newFixtureWithStore(t, api, limit, store)
}

func newFixtureWithStore(t *testing.T, api *fakeAPI, limit config.RateLimitConfig, store results.Store) *fixture {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL)
	probe := &health.Probe{}
	probe.Init(t.Context(), client)

	reg := session.NewRegistry(session.Deps{Sender: client, Store: store, DismissDelay: 150 * time.Millisecond}, time.Hour)
	t.Cleanup(reg.Close)

	h := handler.NewUIHandler(client, store, probe, srv.URL, 250)
	e := echo.New()
	e.Renderer = view.New()
	router.RegisterRoutes(e, h)
	router.RegisterUI(e, h, router.UIMiddleware{
		Sessions:   middleware.Sessions(reg, "secret", time.Hour),
		ChatLimit:  middleware.NewTokenBucket(limit, nil),
		MovieCache: middleware.NewResponseCache(config.CacheConfig{}, nil),
	})
	return &fixture{e: e, api: api}
}

// browser keeps the session cookie between requests.
type browser struct {
	e  *echo.Echo
	ck *http.Cookie
}

func (b *browser) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if b.ck != nil {
		req.AddCookie(b.ck)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CookieName {
			b.ck = ck
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, "", nil)
}

func (b *browser) form(path string, vals url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, echo.MIMEApplicationForm, strings.NewReader(vals.Encode()))
}

func (b *browser) json(t *testing.T, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return b.do(http.MethodPost, path, echo.MIMEApplicationJSON, strings.NewReader(string(body)))
}

type state struct {
	Messages []struct {
		Text   string `json:"text"`
		Sender string `json:"sender"`
	} `json:"messages"`
	MessageCount int  `json:"message_count"`
	Pending      bool `json:"pending"`
	Degraded     bool `json:"degraded"`
	Results      []struct {
		Key   string `json:"key"`
		Movie string `json:"movie"`
	} `json:"results"`
	Voice *struct {
		State          string `json:"state"`
		Caption        string `json:"caption"`
		OverlayVisible bool   `json:"overlay_visible"`
	} `json:"voice"`
	Commands []struct {
		Op      string `json:"op"`
		Session uint64 `json:"session"`
	} `json:"commands"`
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) state {
	t.Helper()
	require.True(t, rec.Code >= 200 && rec.Code < 300, "status %d: %s", rec.Code, rec.Body.String())
	var st state
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func noLimit() config.RateLimitConfig { return config.RateLimitConfig{} }

// waitReply waits until the conversation holds n messages and no reply is
// pending.
func waitReply(t *testing.T, b *browser, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		st := decodeState(t, b.get("/state"))
		return st.MessageCount == n && !st.Pending
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCoimbatoreBookingFlow(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}

	home := b.get("/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "Welcome!")
	assert.Contains(t, home.Body.String(), "No Results Yet")
	assert.NotContains(t, home.Body.String(), "API is offline")

	sent := b.form("/chat", url.Values{"message": {"Show me movies in Coimbatore"}})
	require.Equal(t, http.StatusSeeOther, sent.Code)
	assert.Equal(t, "/", sent.Header().Get(echo.HeaderLocation))
	waitReply(t, b, 2)

	page := b.get("/").Body.String()
	assert.Contains(t, page, "Show me movies in Coimbatore")
	assert.Contains(t, page, "Here are movies in Coimbatore")
	assert.Contains(t, page, "Showing 1 result")
	assert.Contains(t, page, "PVR Cinemas")

	st := decodeState(t, b.get("/state"))
	assert.Equal(t, 2, st.MessageCount)
	require.Len(t, st.Results, 1)
	key := st.Results[0].Key

	detail := b.get("/movie/" + key)
	require.Equal(t, http.StatusOK, detail.Code)
	assert.Contains(t, detail.Body.String(), "Brookefields Mall")
	assert.Contains(t, detail.Body.String(), "Book Tickets")
	assert.NotContains(t, detail.Body.String(), "<img", "no poster region without a poster")

	booking := b.get("/booking/" + key)
	require.Equal(t, http.StatusOK, booking.Code)
	assert.Contains(t, booking.Body.String(), "Select Your Seats")

	rej := b.form("/booking/proceed", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rej.Code)
	assert.Contains(t, rej.Body.String(), "Please select at least one seat")

	assert.Equal(t, http.StatusUnprocessableEntity, b.form("/booking/seats/A3", nil).Code)
	assert.Equal(t, http.StatusSeeOther, b.form("/booking/seats/A1", nil).Code)
	assert.Equal(t, http.StatusSeeOther, b.form("/booking/proceed", nil).Code)

	pay := b.get("/booking")
	assert.Contains(t, pay.Body.String(), "Payment Details")
	assert.Contains(t, pay.Body.String(), "₹180")

	bad := b.form("/booking/pay", url.Values{"card_name": {"A Person"}})
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	assert.Contains(t, bad.Body.String(), "Please fill in all payment details")

	ok := b.form("/booking/pay", url.Values{
		"card_name":   {"A Person"},
		"card_number": {"4111 1111 1111 1111"},
		"expiry_date": {"12/30"},
		"cvv":         {"123"},
	})
	require.Equal(t, http.StatusSeeOther, ok.Code)
	done := b.get("/").Body.String()
	assert.Contains(t, done, "Booking confirmed! 1 seats booked for Leo")
	assert.NotContains(t, b.get("/").Body.String(), "Booking confirmed!", "the notice is shown once")
}

func TestDetail_UnknownKey(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}

	rec := b.get("/movie/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Movie Not Found")
	assert.Contains(t, rec.Body.String(), `href="/"`)

	assert.Equal(t, http.StatusNotFound, b.get("/booking/does-not-exist").Code)
}

func TestIndex_DiscardsBooking(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}

	require.Equal(t, http.StatusOK, b.get("/booking").Code, "opens on the placeholder show")
	b.get("/")
	rec := b.form("/booking/seats/A1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestChat_APIOffline(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: false, chatErr: true}, noLimit())
	b := &browser{e: f.e}

	assert.Contains(t, b.get("/").Body.String(), "API is offline")
	require.Equal(t, http.StatusSeeOther, b.form("/chat", url.Values{"message": {"hello"}}).Code)
	waitReply(t, b, 2)
	page := b.get("/").Body.String()
	assert.Contains(t, page, "Please make sure the API is running and try again.")
	assert.Contains(t, page, "No Results Yet")

	st := decodeState(t, b.get("/state"))
	assert.True(t, st.Degraded)
	assert.Equal(t, 2, st.MessageCount)
}

func TestChat_PendingIsVisibleBeforeReply(t *testing.T) {
	api := &fakeAPI{healthy: true, gate: make(chan struct{})}
	f := newFixture(t, api, noLimit())
	b := &browser{e: f.e}
	b.get("/")

	empty := b.json(t, "/chat", echo.Map{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, empty.Code)

	first := b.json(t, "/chat", echo.Map{"message": "first"})
	require.Equal(t, http.StatusAccepted, first.Code)
	st := decodeState(t, first)
	assert.True(t, st.Pending)
	require.Len(t, st.Messages, 1)
	assert.Equal(t, "first", st.Messages[0].Text)
	assert.Equal(t, "user", st.Messages[0].Sender)

	st = decodeState(t, b.get("/state"))
	assert.True(t, st.Pending)
	assert.Equal(t, 1, st.MessageCount)

	page := b.get("/").Body.String()
	assert.Contains(t, page, "first")
	assert.Contains(t, page, "Thinking...")
	assert.Contains(t, page, `placeholder="Type or use voice..." autocomplete="off" disabled`)

	second := b.json(t, "/chat", echo.Map{"message": "second"})
	assert.Equal(t, http.StatusConflict, second.Code)

	// a plain form resubmit lands back on the page with a notice
	again := b.form("/chat", url.Values{"message": {"second"}})
	assert.Equal(t, http.StatusSeeOther, again.Code)
	assert.Contains(t, b.get("/").Body.String(), "Please wait for the current reply")

	close(api.gate)
	waitReply(t, b, 2)
	assert.Contains(t, b.get("/").Body.String(), "Here are movies in Coimbatore")
}

func TestIndex_CardsWithoutKeyAreNotLinked(t *testing.T) {
	mem, err := results.NewStore(results.StoreTypeMemory)
	require.NoError(t, err)
	f := newFixtureWithStore(t, &fakeAPI{healthy: true}, noLimit(), brokenStore{mem})
	b := &browser{e: f.e}
	b.get("/")

	b.form("/chat", url.Values{"message": {"Show me movies in Coimbatore"}})
	waitReply(t, b, 2)
	page := b.get("/").Body.String()
	assert.Contains(t, page, "PVR Cinemas")
	assert.NotContains(t, page, `href="/movie/`)
}

// brokenStore fails every Put.
type brokenStore struct{ results.Store }

func (brokenStore) Put(ctx context.Context, show model.ShowResult) (string, error) {
	return "", errors.New("store unavailable")
}

func TestChat_RateLimited(t *testing.T) {
	limit := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour, TTL: time.Hour, Prefix: "rl"}
	f := newFixture(t, &fakeAPI{healthy: true}, limit)
	b := &browser{e: f.e}
	b.get("/")

	assert.Equal(t, http.StatusSeeOther, b.form("/chat", url.Values{"message": {"one"}}).Code)
	rec := b.form("/chat", url.Values{"message": {"two"}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestVoice_FinalTranscriptIsSent(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}
	b.get("/")

	st := decodeState(t, b.json(t, "/voice/mount", echo.Map{"supported": true}))
	require.NotNil(t, st.Voice)
	assert.Equal(t, "idle", st.Voice.State)

	st = decodeState(t, b.do(http.MethodPost, "/voice/toggle", "", nil))
	assert.Equal(t, "listening", st.Voice.State)
	assert.True(t, st.Voice.OverlayVisible)
	require.Len(t, st.Commands, 1)
	assert.Equal(t, "start", st.Commands[0].Op)
	sid := st.Commands[0].Session

	st = decodeState(t, b.json(t, "/voice/events", echo.Map{"session": sid, "type": "result",
		"result_index": 0, "results": []echo.Map{{"transcript": "Show me movies in Coimbatore", "is_final": true}}}))
	assert.Equal(t, "finalizing", st.Voice.State)
	assert.Equal(t, "Show me movies in Coimbatore", st.Voice.Caption)

	require.Eventually(t, func() bool {
		s := decodeState(t, b.get("/state"))
		return s.MessageCount == 2 && !s.Pending
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, b.get("/").Body.String(), "Showing 1 result")

	// the overlay dismisses itself and stops the page's recognizer
	require.Eventually(t, func() bool {
		s := decodeState(t, b.get("/voice/command"))
		return s.Voice.State == "idle" && !s.Voice.OverlayVisible
	}, 2*time.Second, 10*time.Millisecond)
}

func TestVoice_StaleEventIgnored(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}
	b.get("/")
	b.json(t, "/voice/mount", echo.Map{"supported": true})
	st := decodeState(t, b.do(http.MethodPost, "/voice/toggle", "", nil))
	sid := st.Commands[0].Session

	st = decodeState(t, b.do(http.MethodPost, "/voice/cancel", "", nil))
	assert.Equal(t, "idle", st.Voice.State)
	require.Len(t, st.Commands, 1)
	assert.Equal(t, "stop", st.Commands[0].Op)

	st = decodeState(t, b.json(t, "/voice/events", echo.Map{"session": sid, "type": "result",
		"results": []echo.Map{{"transcript": "late", "is_final": true}}}))
	assert.Equal(t, "idle", st.Voice.State)
	assert.Zero(t, st.MessageCount)

	bad := b.json(t, "/voice/events", echo.Map{"session": sid, "type": "bogus"})
	assert.Equal(t, http.StatusOK, bad.Code, "events of a closed session are not inspected")
}

func TestVoice_Unsupported(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}
	b.get("/")

	assert.Equal(t, http.StatusConflict, b.do(http.MethodPost, "/voice/toggle", "", nil).Code, "not mounted yet")

	st := decodeState(t, b.json(t, "/voice/mount", echo.Map{"supported": false}))
	assert.Equal(t, "unavailable", st.Voice.State)
	assert.Equal(t, http.StatusConflict, b.do(http.MethodPost, "/voice/toggle", "", nil).Code)
	assert.NotContains(t, b.get("/").Body.String(), `id="mic"`)

	st = decodeState(t, b.json(t, "/voice/mount", echo.Map{"supported": true}))
	assert.Equal(t, "unavailable", st.Voice.State, "capability is checked once")
}

func TestHealthAndMovies(t *testing.T) {
	f := newFixture(t, &fakeAPI{healthy: true}, noLimit())
	b := &browser{e: f.e}

	rec := b.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","api":"online"}`, rec.Body.String())
	assert.Nil(t, b.ck, "probes do not open sessions")

	movies := b.get("/api/movies")
	require.Equal(t, http.StatusOK, movies.Code)
	assert.JSONEq(t, `{"items":[{"id":"leo","name":"Leo"}]}`, movies.Body.String())
}
