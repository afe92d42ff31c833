package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/jvanhorsen/Twixie/internal/db"
	"github.com/jvanhorsen/Twixie/internal/game"
	"github.com/jvanhorsen/Twixie/internal/stats"
	"github.com/jvanhorsen/Twixie/internal/words"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

type fixture struct {
	srv   *Server
	ts    *httptest.Server
	clock *clock
	stats *stats.SQLStore
}

// newFixture serves a four-word catalog. On 2024-01-15 the daily word is
// rainbow; endless easy games always draw sunshine.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := db.OpenAndMigrate(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	bank, err := words.NewBank([]words.CompoundWord{
		{Word: "sunshine", FirstSegment: "sun", SecondSegment: "shine", Difficulty: words.Easy, Definition: "Direct light from the sun"},
		{Word: "rainbow", FirstSegment: "rain", SecondSegment: "bow", Difficulty: words.Easy},
		{Word: "moonbeam", FirstSegment: "moon", SecondSegment: "beam", Difficulty: words.Medium},
		{Word: "windmill", FirstSegment: "wind", SecondSegment: "mill", Difficulty: words.Medium},
	}, words.WithSource(zeroSource{}))
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	c := &clock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	nop := zerolog.Nop()
	srv := New(Options{
		Bank:       bank,
		DB:         conn,
		JWTSecret:  "test-secret",
		JWTTTL:     time.Hour,
		CookieName: "tok",
		Source:     zeroSource{},
		Clock:      c.Now,
		Logger:     &nop,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Wait()
		_ = conn.Close()
	})
	return &fixture{srv: srv, ts: ts, clock: c, stats: stats.NewSQLStore(conn)}
}

func (f *fixture) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

// call sends a JSON request and decodes the JSON reply into out (if non-nil).
func (f *fixture) call(t *testing.T, c *http.Client, method, path string, body, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, f.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func (f *fixture) newGame(t *testing.T, c *http.Client, mode, difficulty string) newGameRes {
	t.Helper()
	var ng newGameRes
	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"mode": mode, "difficulty": difficulty}, &ng); code != http.StatusOK {
		t.Fatalf("new game: status %d", code)
	}
	return ng
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	var body map[string]bool
	if code := f.call(t, f.client(t), http.MethodGet, "/health", nil, &body); code != http.StatusOK || !body["ok"] {
		t.Fatalf("health = %d %v", code, body)
	}
	var nf errorRes
	if code := f.call(t, f.client(t), http.MethodGet, "/nope", nil, &nf); code != http.StatusNotFound || nf.Error != "not_found" {
		t.Fatalf("404 = %d %+v", code, nf)
	}
}

func TestGuestGuessFlow(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	ng := f.newGame(t, c, "endless", "easy")
	if ng.GameID == "" || ng.SegmentLength != 3 || ng.WordLength != 8 || ng.Phase != game.PhaseFirstSegment || ng.MaxGuesses != 6 {
		t.Fatalf("unexpected new game %+v", ng)
	}

	var e errorRes
	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "sunshine"}, &e); code != http.StatusBadRequest || e.Code != "invalid_length" {
		t.Fatalf("phase 1 long guess = %d %+v", code, e)
	}

	var g guessRes
	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "SUN"}, &g); code != http.StatusOK {
		t.Fatalf("guess sun: %d", code)
	}
	if !g.Advanced || g.Phase != game.PhaseFullWord || g.Status != game.Playing || g.GuessesLeft != 5 || g.Answer != "" {
		t.Fatalf("unexpected result %+v", g)
	}

	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "abcdefgh"}, &e); code != http.StatusBadRequest || e.Code != "invalid_word" {
		t.Fatalf("unknown word = %d %+v", code, e)
	}

	var view gameView
	f.call(t, c, http.MethodGet, "/game/"+ng.GameID, nil, &view)
	if view.TargetWord != "" || view.FirstSegment != "sun" || len(view.Board) != 6 || len(view.Board[0]) != 8 {
		t.Fatalf("mid-game view leaks or is malformed: %+v", view)
	}

	f.clock.Advance(10 * time.Second)
	g = guessRes{}
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "sunshine"}, &g)
	if g.Status != game.Won || g.Score != 2300 || g.Answer != "sunshine" || !strings.Contains(g.Share, "Twixie") {
		t.Fatalf("win = %+v", g)
	}

	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "sunshine"}, &e); code != http.StatusBadRequest || e.Code != "game_over" {
		t.Fatalf("guess after win = %d %+v", code, e)
	}

	view = gameView{}
	f.call(t, c, http.MethodGet, "/game/"+ng.GameID, nil, &view)
	if view.Status != game.Won || view.TargetWord != "sunshine" || view.ElapsedMs != 10000 {
		t.Fatalf("final view %+v", view)
	}

	// Another browser cannot see or play the game.
	if code := f.call(t, f.client(t), http.MethodGet, "/game/"+ng.GameID, nil, &e); code != http.StatusNotFound {
		t.Fatalf("foreign access = %d", code)
	}
}

func TestNewGameValidation(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	var e errorRes
	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"mode": "forever"}, &e); code != http.StatusBadRequest || e.Code != "invalid_mode" {
		t.Fatalf("bad mode = %d %+v", code, e)
	}
	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"difficulty": "nightmare"}, &e); code != http.StatusBadRequest || e.Code != "invalid_difficulty" {
		t.Fatalf("bad difficulty = %d %+v", code, e)
	}
	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"difficulty": "hard"}, &e); code != http.StatusServiceUnavailable || e.Code != "no_words" {
		t.Fatalf("empty tier = %d %+v", code, e)
	}
	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: "missing", Guess: "sun"}, &e); code != http.StatusNotFound {
		t.Fatalf("unknown game = %d", code)
	}
}

func TestKeysAndHints(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	ng := f.newGame(t, c, "endless", "easy")

	key := func(k string) (int, keyRes) {
		var kr keyRes
		code := f.call(t, c, http.MethodPost, "/game/key", keyReq{GameID: ng.GameID, Key: k}, &kr)
		return code, kr
	}
	key("S")
	key("x")
	key("1")
	if _, kr := key("BACKSPACE"); kr.CurrentGuess != "s" {
		t.Fatalf("buffer = %q, want s", kr.CurrentGuess)
	}
	if code, _ := key("ab"); code != http.StatusBadRequest {
		t.Fatalf("multi-letter key accepted: %d", code)
	}

	hint := func(typ game.HintType) (int, hintRes) {
		var hr hintRes
		code := f.call(t, c, http.MethodPost, "/game/hint", hintReq{GameID: ng.GameID, Type: typ}, &hr)
		return code, hr
	}
	// Position 0 already holds 's', so the first open position is 1.
	if code, hr := hint(game.HintLetter); code != http.StatusOK || hr.Letter != "u" || hr.Position != 1 || hr.HintsRemaining != 2 {
		t.Fatalf("letter hint = %d %+v", code, hr)
	}
	if _, hr := hint(game.HintDefinition); hr.Definition != "Direct light from the sun" || hr.Position != -1 {
		t.Fatalf("definition hint = %+v", hr)
	}
	hint(game.HintLetter)
	if code, _ := hint(game.HintLetter); code != http.StatusConflict {
		t.Fatalf("fourth hint on easy = %d, want 409", code)
	}

	key("u")
	key("n")
	code, kr := key("ENTER")
	if code != http.StatusOK || kr.Result == nil || !kr.Result.Advanced || kr.CurrentGuess != "" {
		t.Fatalf("enter = %d %+v", code, kr)
	}
}

func TestAccountDailyAndStats(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	var e errorRes
	if code := f.call(t, c, http.MethodGet, "/stats/me", nil, &e); code != http.StatusUnauthorized {
		t.Fatalf("stats without login = %d", code)
	}

	// A guest game is claimed by the account created afterwards.
	guest := f.newGame(t, c, "endless", "easy")

	var u userRes
	if code := f.call(t, c, http.MethodPost, "/auth/signup", credentialsReq{Username: "ada", Password: "correct horse"}, &u); code != http.StatusOK || u.ID == "" {
		t.Fatalf("signup = %d %+v", code, u)
	}
	if code := f.call(t, f.client(t), http.MethodPost, "/auth/signup", credentialsReq{Username: "ADA", Password: "correct horse"}, &e); code != http.StatusConflict {
		t.Fatalf("duplicate signup = %d", code)
	}
	if code := f.call(t, f.client(t), http.MethodPost, "/auth/login", credentialsReq{Username: "ada", Password: "nope nope"}, &e); code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d", code)
	}
	var me userRes
	if code := f.call(t, c, http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.Username != "ada" {
		t.Fatalf("me = %d %+v", code, me)
	}

	// The guest game is still playable after signing in.
	var g guessRes
	if code := f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: guest.GameID, Guess: "sun"}, &g); code != http.StatusOK {
		t.Fatalf("guest game after signup = %d", code)
	}

	ng := f.newGame(t, c, "daily", "")
	if ng.Date != "2024-01-15" || ng.WordLength != 7 || ng.SegmentLength != 4 {
		t.Fatalf("daily game %+v", ng)
	}
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "rain"}, &g)
	g = guessRes{}
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "rainbow"}, &g)
	if g.Status != game.Won || g.Score != 2400 {
		t.Fatalf("daily win %+v", g)
	}
	f.srv.Wait()

	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"mode": "daily"}, &e); code != http.StatusConflict || e.Code != "already_played" {
		t.Fatalf("second daily = %d %+v", code, e)
	}

	var st statsRes
	f.call(t, c, http.MethodGet, "/stats/me", nil, &st)
	if st.GamesPlayed != 1 || st.Wins != 1 || st.Streak != 1 || st.TotalScore != 2400 || st.WinPercentage != 100 {
		t.Fatalf("stats %+v", st)
	}
	stored, err := f.stats.LoadStats(context.Background(), u.ID)
	if err != nil || stored.GamesPlayed != 1 || stored.TotalScore != 2400 {
		t.Fatalf("stored stats %+v, %v", stored, err)
	}

	var mine []map[string]any
	f.call(t, c, http.MethodGet, "/games/mine", nil, &mine)
	if len(mine) != 2 {
		t.Fatalf("games/mine = %+v", mine)
	}

	var today todayRes
	f.call(t, c, http.MethodGet, "/daily/today", nil, &today)
	if !today.Played || today.Result == nil || !today.Result.Finished || today.Result.Score != 2400 {
		t.Fatalf("today %+v", today)
	}
	var lb lbRes
	f.call(t, c, http.MethodGet, "/daily/leaderboard", nil, &lb)
	if lb.Date != "2024-01-15" || len(lb.Top) != 1 || lb.Top[0].Username != "ada" {
		t.Fatalf("leaderboard %+v", lb)
	}
	if code := f.call(t, c, http.MethodGet, "/daily/leaderboard?date=yesterday", nil, &e); code != http.StatusBadRequest {
		t.Fatalf("bad date = %d", code)
	}

	var ok map[string]bool
	f.call(t, c, http.MethodPost, "/auth/logout", nil, &ok)
	if code := f.call(t, c, http.MethodGet, "/auth/me", nil, &e); code != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", code)
	}
}

func TestDailyStartsOncePerDay(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	ng := f.newGame(t, c, "daily", "")
	var h hintRes
	if code := f.call(t, c, http.MethodPost, "/game/hint", hintReq{GameID: ng.GameID, Type: game.HintLetter}, &h); code != http.StatusOK {
		t.Fatalf("hint = %d", code)
	}

	// The first game is still open: no second daily for fresh hints.
	var e errorRes
	if code := f.call(t, c, http.MethodPost, "/game/new", map[string]string{"mode": "daily"}, &e); code != http.StatusConflict || e.Code != "already_played" {
		t.Fatalf("second daily while open = %d %+v", code, e)
	}

	var today todayRes
	f.call(t, c, http.MethodGet, "/daily/today", nil, &today)
	if !today.Played || today.Result == nil || today.Result.Finished {
		t.Fatalf("today %+v", today)
	}

	// Another guest still gets their own daily game.
	f.newGame(t, f.client(t), "daily", "")

	var g guessRes
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "rain"}, &g)
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "rainbow"}, &g)
	if g.Status != game.Won {
		t.Fatalf("daily win %+v", g)
	}
	today = todayRes{}
	f.call(t, c, http.MethodGet, "/daily/today", nil, &today)
	if today.Result == nil || !today.Result.Finished || !today.Result.Completed || today.Result.HintsUsed != 1 {
		t.Fatalf("today after win %+v", today.Result)
	}
}

func TestClockFeed(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	ng := f.newGame(t, c, "endless", "easy")
	f.clock.Advance(3 * time.Second)

	dialer := websocket.Dialer{Jar: c.Jar}
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/game/" + ng.GameID + "/clock"
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	var tick clockTick
	if err := conn.ReadJSON(&tick); err != nil {
		t.Fatalf("read: %v", err)
	}
	if tick.ElapsedMs != 3000 || tick.Status != game.Playing {
		t.Fatalf("tick = %+v", tick)
	}
	_ = conn.Close()

	// A finished game sends one final tick and closes.
	var g guessRes
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "sun"}, &g)
	f.call(t, c, http.MethodPost, "/game/guess", guessReq{GameID: ng.GameID, Guess: "sunshine"}, &g)
	conn, _, err = dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	tick = clockTick{}
	if err := conn.ReadJSON(&tick); err != nil || tick.Status != game.Won {
		t.Fatalf("final tick = %+v, %v", tick, err)
	}
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}

	if _, res, err := (&websocket.Dialer{}).Dial(url, nil); err == nil || res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign clock dial should 404, got %v", err)
	}
}
