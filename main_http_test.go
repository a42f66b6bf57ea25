package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"numberline/internal/engine"
	"numberline/internal/types"
)

func testConfig() Config {
	return Config{
		Port:            "0",
		DefaultMode:     engine.Normal,
		SessionTimeout:  time.Hour,
		CookieMaxAge:    time.Hour,
		StaticCacheAge:  time.Minute,
		CleanupInterval: time.Minute,
		RateLimitRPS:    1000,
		RateLimitBurst:  1000,
	}
}

// testApp returns an app whose games draw from seeded sources.
func testApp() *App {
	app := newApp(testConfig())
	var seed uint64
	app.NewSource = func() engine.Source {
		seed++
		return engine.NewSeededSource(seed)
	}
	return app
}

func setupTestRouter(app *App) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return app.setupRouter("templates/*.html", "./static")
}

// testClient replays the session cookie between requests.
type testClient struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func newTestClient(t *testing.T, app *App) *testClient {
	return &testClient{t: t, router: setupTestRouter(app)}
}

func (tc *testClient) do(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	tc.t.Helper()
	req, err := http.NewRequest(method, path, body)
	if err != nil {
		tc.t.Fatalf("NewRequest failed: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	tc.router.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		tc.cookies = set
	}
	return w
}

var jsonHeaders = map[string]string{
	"Accept":       "application/json",
	"Content-Type": "application/json",
}

// intent posts a JSON intent and decodes the result.
func (tc *testClient) intent(path, body string) engine.Result {
	tc.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := tc.do(http.MethodPost, path, r, jsonHeaders)
	if w.Code != http.StatusOK {
		tc.t.Fatalf("POST %s returned %d: %s", path, w.Code, w.Body.String())
	}
	var res engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		tc.t.Fatalf("decode %s response: %v", path, err)
	}
	return res
}

func (tc *testClient) state(mode string) engine.Snapshot {
	tc.t.Helper()
	w := tc.do(http.MethodGet, "/games/"+mode, nil, map[string]string{"Accept": "application/json"})
	if w.Code != http.StatusOK {
		tc.t.Fatalf("GET /games/%s returned %d", mode, w.Code)
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		tc.t.Fatalf("decode state: %v", err)
	}
	return snap
}

func TestHomeRedirectsToDefaultMode(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("GET / returned %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/play/normal" {
		t.Errorf("Location = %q, want /play/normal", loc)
	}
}

func TestPlayPageRenders(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/play/hard", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /play/hard returned %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Numberline - Hard", `id="slot-0"`, `id="slot-19"`, `id="game"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if len(tc.cookies) == 0 || tc.cookies[0].Name != SessionCookieName {
		t.Error("session cookie not set")
	}
}

func TestUnknownMode(t *testing.T) {
	tc := newTestClient(t, testApp())
	for _, path := range []string{"/play/impossible", "/games/impossible"} {
		w := tc.do(http.MethodGet, path, nil, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s returned %d, want 404", path, w.Code)
		}
	}
	w := tc.do(http.MethodPost, "/games/impossible/reroll", nil, jsonHeaders)
	if w.Code != http.StatusNotFound {
		t.Errorf("POST to unknown mode returned %d, want 404", w.Code)
	}
}

func TestStateJSON(t *testing.T) {
	tc := newTestClient(t, testApp())
	snap := tc.state("easy")
	if len(snap.Board) != engine.Easy.BoardSize {
		t.Errorf("board has %d slots, want %d", len(snap.Board), engine.Easy.BoardSize)
	}
	if snap.Status != engine.StatusInProgress {
		t.Errorf("status = %v, want in_progress", snap.Status)
	}
	if snap.Pending < 1 || snap.Pending > engine.Easy.NumberRange {
		t.Errorf("pending %d out of range", snap.Pending)
	}
	if len(snap.Placeable) != engine.Easy.BoardSize {
		t.Errorf("placeable = %v, want every slot", snap.Placeable)
	}

	again := tc.state("easy")
	if again.Pending != snap.Pending {
		t.Error("state request created a new game instead of reusing the session's")
	}
}

func TestPlaceJSON(t *testing.T) {
	tc := newTestClient(t, testApp())
	pending := tc.state("easy").Pending

	res := tc.intent("/games/easy/place", `{"index": 2}`)
	if res.Outcome != engine.Accepted {
		t.Fatalf("place outcome = %v", res.Outcome)
	}
	if res.Board[2] == nil || *res.Board[2] != pending {
		t.Errorf("board[2] = %v, want %d", res.Board[2], pending)
	}

	again := tc.intent("/games/easy/place", `{"index": 2}`)
	if again.Outcome != engine.RejectedSlotOccupied {
		t.Errorf("second place outcome = %v, want rejected_slot_occupied", again.Outcome)
	}
	if *again.Board[2] != pending {
		t.Error("rejected place changed the board")
	}

	if out := tc.intent("/games/easy/place", `{"index": 99}`); out.Outcome != engine.RejectedOutOfRange {
		t.Errorf("place at 99 = %v, want rejected_out_of_range", out.Outcome)
	}
	if out := tc.intent("/games/easy/place", `{"index": -1}`); out.Outcome != engine.RejectedOutOfRange {
		t.Errorf("place at -1 = %v, want rejected_out_of_range", out.Outcome)
	}
}

func TestPlaceFormRedirects(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodPost, "/games/easy/place", strings.NewReader("index=0"),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("form place returned %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/play/easy" {
		t.Errorf("Location = %q, want /play/easy", loc)
	}
	if snap := tc.state("easy"); snap.Board[0] == nil {
		t.Error("form place did not fill slot 0")
	}
}

func TestBadIndexRequests(t *testing.T) {
	tc := newTestClient(t, testApp())
	cases := []struct {
		path string
		body string
	}{
		{"/games/easy/place", `{}`},
		{"/games/easy/place", `{"index": "two"}`},
		{"/games/easy/delete/abc", ""},
	}
	for _, c := range cases {
		w := tc.do(http.MethodPost, c.path, strings.NewReader(c.body), jsonHeaders)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST %s %s returned %d, want 400", c.path, c.body, w.Code)
			continue
		}
		var resp types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Errorf("POST %s: missing error body: %s", c.path, w.Body.String())
		}
	}
}

func TestPowerUpFlow(t *testing.T) {
	tc := newTestClient(t, testApp())

	if res := tc.intent("/games/normal/delete", ""); res.Outcome != engine.RejectedUnavailable {
		t.Errorf("delete on empty board = %v, want rejected_unavailable", res.Outcome)
	}
	if res := tc.intent("/games/normal/delete-three", ""); res.Outcome != engine.RejectedUnavailable {
		t.Errorf("delete-three on empty board = %v, want rejected_unavailable", res.Outcome)
	}

	// slot 9 only takes a number at least as large as slot 0
	first := tc.intent("/games/normal/place", `{"index": 0}`)
	if first.Outcome != engine.Accepted {
		t.Fatalf("place(0) = %v", first.Outcome)
	}
	placed := tc.intent("/games/normal/place", `{"index": 9}`)
	if placed.Outcome != engine.Accepted && placed.Outcome != engine.RejectedInvalidPlacement {
		t.Fatalf("place(9) = %v", placed.Outcome)
	}

	reroll := tc.intent("/games/normal/reroll", "")
	if reroll.Outcome != engine.Accepted || !reroll.RerollUsed {
		t.Errorf("reroll = %v used=%v", reroll.Outcome, reroll.RerollUsed)
	}
	if reroll.Pending == placed.Pending {
		t.Error("reroll kept the same number")
	}
	if res := tc.intent("/games/normal/reroll", ""); res.Outcome != engine.RejectedExhausted {
		t.Errorf("second reroll = %v, want rejected_exhausted", res.Outcome)
	}

	if res := tc.intent("/games/normal/delete", ""); !res.DeleteModeActive {
		t.Error("delete did not arm")
	}
	if res := tc.intent("/games/normal/delete", ""); res.DeleteModeActive || res.DeleteUsed {
		t.Error("second delete did not disarm cleanly")
	}
	tc.intent("/games/normal/delete", "")
	deleted := tc.intent("/games/normal/delete/0", "")
	if deleted.Outcome != engine.Accepted || deleted.Board[0] != nil || !deleted.DeleteUsed {
		t.Errorf("delete/0 = %v board[0]=%v used=%v", deleted.Outcome, deleted.Board[0], deleted.DeleteUsed)
	}
	if res := tc.intent("/games/normal/delete", ""); res.Outcome != engine.RejectedExhausted {
		t.Errorf("delete after use = %v, want rejected_exhausted", res.Outcome)
	}

	if len(deleted.Placeable) > 0 {
		tc.intent("/games/normal/place", fmt.Sprintf(`{"index": %d}`, deleted.Placeable[0]))
	}
	three := tc.intent("/games/normal/delete-three", "")
	if three.Outcome != engine.Accepted || !three.Delete3Used || len(three.Cleared) == 0 {
		t.Errorf("delete-three = %v used=%v cleared=%v", three.Outcome, three.Delete3Used, three.Cleared)
	}

	reset := tc.intent("/games/normal/reset", "")
	if reset.Outcome != engine.Accepted || reset.RerollUsed || reset.DeleteUsed || reset.Delete3Used {
		t.Errorf("reset left state behind: %+v", reset)
	}
	for i, v := range reset.Board {
		if v != nil {
			t.Errorf("slot %d filled after reset", i)
		}
	}
}

func TestModesAreIndependent(t *testing.T) {
	tc := newTestClient(t, testApp())
	tc.intent("/games/easy/place", `{"index": 0}`)
	if snap := tc.state("hard"); snap.Board[0] != nil {
		t.Error("placing in easy filled the hard board")
	}
	if snap := tc.state("easy"); snap.Board[0] == nil {
		t.Error("easy placement lost")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	app := testApp()
	alice := newTestClient(t, app)
	bob := newTestClient(t, app)
	alice.intent("/games/easy/place", `{"index": 4}`)
	if snap := bob.state("easy"); snap.Board[4] != nil {
		t.Error("one session's move showed up in another")
	}
}

func TestHTMXRejectionTrigger(t *testing.T) {
	tc := newTestClient(t, testApp())
	hx := map[string]string{headerHXRequest: "true"}

	w := tc.do(http.MethodPost, "/games/easy/reroll", nil, hx)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `id="game"`) {
		t.Fatalf("HTMX reroll returned %d: %s", w.Code, w.Body.String())
	}
	if trig := w.Header().Get(headerHXTrigger); trig != "" {
		t.Errorf("accepted intent set HX-Trigger %q", trig)
	}

	w = tc.do(http.MethodPost, "/games/easy/reroll", nil, hx)
	var trig types.RejectionTrigger
	if err := json.Unmarshal([]byte(w.Header().Get(headerHXTrigger)), &trig); err != nil {
		t.Fatalf("HX-Trigger not JSON: %v", err)
	}
	if trig.Rejected.Outcome != engine.RejectedExhausted || trig.Rejected.Intent != engine.IntentReroll {
		t.Errorf("trigger = %+v", trig.Rejected)
	}
	if trig.Rejected.Slot != nil {
		t.Error("reroll rejection should not name a slot")
	}

	tc.do(http.MethodPost, "/games/easy/place", strings.NewReader("index=1"),
		map[string]string{headerHXRequest: "true", "Content-Type": "application/x-www-form-urlencoded"})
	w = tc.do(http.MethodPost, "/games/easy/place", strings.NewReader("index=1"),
		map[string]string{headerHXRequest: "true", "Content-Type": "application/x-www-form-urlencoded"})
	trig = types.RejectionTrigger{}
	if err := json.Unmarshal([]byte(w.Header().Get(headerHXTrigger)), &trig); err != nil {
		t.Fatalf("HX-Trigger not JSON: %v", err)
	}
	if trig.Rejected.Slot == nil || *trig.Rejected.Slot != 1 {
		t.Errorf("place rejection slot = %v, want 1", trig.Rejected.Slot)
	}
}

func TestModesEndpoint(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/modes", nil, nil)
	var resp types.ModesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode /modes: %v", err)
	}
	if resp.Default != "normal" || len(resp.Modes) != 3 {
		t.Errorf("modes = %+v", resp)
	}
}

func TestHealthzFields(t *testing.T) {
	app := testApp()
	tc := newTestClient(t, app)
	tc.state("easy")
	tc.intent("/games/easy/reset", "")

	w := tc.do(http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned %d", w.Code)
	}
	var resp types.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode /healthz: %v", err)
	}
	if resp.Status != "ok" || resp.Env != "development" {
		t.Errorf("status/env = %q/%q", resp.Status, resp.Env)
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d, want 1", resp.ActiveSessions)
	}
	if resp.GamesStarted != 2 {
		t.Errorf("games_started = %d, want 2 (create + reset)", resp.GamesStarted)
	}
	if len(resp.Modes) != 3 {
		t.Errorf("modes = %v", resp.Modes)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 10
	app := newApp(cfg)

	router := gin.New()
	router.Use(app.rateLimitMiddleware())
	router.GET("/limited", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req, _ := http.NewRequest(http.MethodGet, "/limited", nil)
	req.RemoteAddr = "127.0.0.1:12345"
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("11th request: expected 429, got %d", w.Code)
	}
}

func TestGameRoutesAreNotCached(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/games/easy", nil, map[string]string{"Accept": "application/json"})
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
}

func TestStaticCachedInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.IsProduction = true
	app := newApp(cfg)
	tc := newTestClient(t, app)
	w := tc.do(http.MethodGet, "/static/app.css", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /static/app.css returned %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "public") {
		t.Errorf("Cache-Control = %q, want public", cc)
	}
}

func TestStaticGzip(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/static/app.css", nil, map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", w.Header().Get("Content-Encoding"))
	}
	gr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	defer gr.Close()
	body, _ := io.ReadAll(gr)
	if !strings.Contains(string(body), "board") {
		t.Error("decompressed stylesheet looks wrong")
	}
}

func TestRequestIDHeader(t *testing.T) {
	tc := newTestClient(t, testApp())
	w := tc.do(http.MethodGet, "/healthz", nil, map[string]string{"X-Request-Id": "abc-123"})
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want abc-123", got)
	}
	w = tc.do(http.MethodGet, "/healthz", nil, nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("request ID not generated")
	}
}
