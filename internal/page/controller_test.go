package page

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imagination-site-api/internal/model"
	"imagination-site-api/internal/render"
	"imagination-site-api/internal/roblox"
)

var errUpstream = errors.New("upstream unavailable")

// fakeFetcher is a scripted upstream. Nil funcs fail with errUpstream.
type fakeFetcher struct {
	group  func(ctx context.Context) (model.GroupSummary, error)
	games  func(ctx context.Context) ([]model.GameListing, error)
	icon   func(ctx context.Context, id int64) (string, error)
	passes func(ctx context.Context, id int64) ([]roblox.GamePass, error)
	detail func(ctx context.Context, id int64) (roblox.GameDetail, error)

	gamesCalls  int32
	detailCalls int32
}

func (f *fakeFetcher) GroupSummary(ctx context.Context) (model.GroupSummary, error) {
	if f.group == nil {
		return model.GroupSummary{}, errUpstream
	}
	return f.group(ctx)
}

func (f *fakeFetcher) GroupGames(ctx context.Context) ([]model.GameListing, error) {
	atomic.AddInt32(&f.gamesCalls, 1)
	if f.games == nil {
		return nil, errUpstream
	}
	return f.games(ctx)
}

func (f *fakeFetcher) GameIcon(ctx context.Context, id int64) (string, error) {
	if f.icon == nil {
		return "", errUpstream
	}
	return f.icon(ctx, id)
}

func (f *fakeFetcher) GamePasses(ctx context.Context, id int64) ([]roblox.GamePass, error) {
	if f.passes == nil {
		return nil, errUpstream
	}
	return f.passes(ctx, id)
}

func (f *fakeFetcher) GameDetail(ctx context.Context, id int64) (roblox.GameDetail, error) {
	atomic.AddInt32(&f.detailCalls, 1)
	if f.detail == nil {
		return roblox.GameDetail{}, errUpstream
	}
	return f.detail(ctx, id)
}

func gamesOf(list ...model.GameListing) func(context.Context) ([]model.GameListing, error) {
	return func(context.Context) ([]model.GameListing, error) { return list, nil }
}

func noPasses(context.Context, int64) ([]roblox.GamePass, error) { return nil, nil }
func noDetail(context.Context, int64) (roblox.GameDetail, error) { return roblox.GameDetail{}, nil }

// tickingClock returns a strictly increasing time on every call.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 8, 25, 12, 0, 0, 0, time.Local)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// memoryRecorder collects refresh records.
type memoryRecorder struct {
	mu      sync.Mutex
	records []model.RefreshRecord
}

func (r *memoryRecorder) Record(ctx context.Context, rec *model.RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	return nil
}

func (r *memoryRecorder) byRegion(region string) []model.RefreshRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RefreshRecord
	for _, rec := range r.records {
		if rec.Region == region {
			out = append(out, rec)
		}
	}
	return out
}

func newTestController(f Fetcher, policy Policy) *Controller {
	return NewController(f, NewDocument(), Options{Policy: policy, Now: newTickingClock().Now})
}

func text(t *testing.T, c *Controller, id string) string {
	t.Helper()
	h, ok := c.Document().Get(id)
	if !ok {
		t.Fatalf("container %s missing", id)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(h)))
	if err != nil {
		t.Fatalf("parsing container %s: %v", id, err)
	}
	return strings.TrimSpace(doc.Text())
}

func containerDoc(t *testing.T, c *Controller, id string) *goquery.Document {
	t.Helper()
	h, _ := c.Document().Get(id)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(h)))
	if err != nil {
		t.Fatalf("parsing container %s: %v", id, err)
	}
	return doc
}

func TestLoadGroupInfo(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		group   func(context.Context) (model.GroupSummary, error)
		want    string
		outcome string
	}{
		{
			name:    "live",
			policy:  PolicyVisible,
			group:   func(context.Context) (model.GroupSummary, error) { return model.GroupSummary{MemberCount: 2_500_000}, nil },
			want:    "2.5M",
			outcome: model.OutcomeLive,
		},
		{
			name:    "silent fallback",
			policy:  PolicySilent,
			want:    "15.4K",
			outcome: model.OutcomeFallback,
		},
		{
			name:    "visible error",
			policy:  PolicyVisible,
			want:    msgMembersFailed,
			outcome: model.OutcomeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeFetcher{group: tt.group}, tt.policy)

			if got := c.LoadGroupInfo(context.Background()); got != tt.outcome {
				t.Errorf("outcome = %q, want %q", got, tt.outcome)
			}
			if got := text(t, c, MembersCount); got != tt.want {
				t.Errorf("members-count = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSilentGroupFallbackIsNotAnError(t *testing.T) {
	c := newTestController(&fakeFetcher{}, PolicySilent)
	c.LoadGroupInfo(context.Background())

	if containerDoc(t, c, MembersCount).Find(".error-message").Length() != 0 {
		t.Error("silent policy surfaced an error message")
	}
}

func TestLoadGamesLive(t *testing.T) {
	price := int64(100)
	f := &fakeFetcher{
		games: gamesOf(
			model.GameListing{ID: 30, Name: "Zeta", Description: "z", PlaceVisits: 1000},
			model.GameListing{ID: 10, Name: "Alpha", Description: "a", PlaceVisits: 500},
			model.GameListing{ID: 20, Name: "Mid", Description: "m"},
		),
		icon: func(_ context.Context, id int64) (string, error) {
			// Later listings answer first.
			time.Sleep(time.Duration(40-id) * time.Millisecond)
			return "https://cdn.example/icon.png", nil
		},
		passes: func(_ context.Context, id int64) ([]roblox.GamePass, error) {
			if id == 10 {
				return []roblox.GamePass{{ID: 1, Price: &price}}, nil
			}
			return nil, nil
		},
		detail: noDetail,
	}
	c := newTestController(f, PolicyVisible)

	if got := c.LoadGames(context.Background()); got != model.OutcomeLive {
		t.Fatalf("outcome = %q, want live", got)
	}

	if got := text(t, c, GamesCount); got != "3" {
		t.Errorf("games-count = %q, want 3", got)
	}
	if got := text(t, c, VisitsCount); got != "1.5K" {
		t.Errorf("visits-count = %q, want 1.5K", got)
	}

	doc := containerDoc(t, c, GamesContainer)
	var titles []string
	doc.Find(".game-card h3").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})
	if strings.Join(titles, ",") != "Zeta,Alpha,Mid" {
		t.Errorf("card order = %v, want source order", titles)
	}

	prices := doc.Find(".game-card .price-info")
	if prices.Length() != 1 {
		t.Fatalf("price lines = %d, want 1", prices.Length())
	}
	if got := prices.Text(); got != "💎 100 Robux" {
		t.Errorf("price line = %q", got)
	}

	if got := model.TotalVisits(c.Games()); got != 1500 {
		t.Errorf("TotalVisits(Games()) = %d, want 1500", got)
	}
}

func TestLoadGamesVisibleFailure(t *testing.T) {
	tests := []struct {
		name  string
		games func(context.Context) ([]model.GameListing, error)
	}{
		{"fetch rejects", nil},
		{"empty result", gamesOf()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeFetcher{games: tt.games}, PolicyVisible)

			if got := c.LoadGames(context.Background()); got != model.OutcomeError {
				t.Errorf("outcome = %q, want error", got)
			}
			if got := text(t, c, GamesContainer); got != msgGamesFailed {
				t.Errorf("games-container = %q, want %q", got, msgGamesFailed)
			}
			if got := text(t, c, GamesCount); got != "0" {
				t.Errorf("games-count = %q, want 0", got)
			}
			if got := text(t, c, VisitsCount); got != "0" {
				t.Errorf("visits-count = %q, want 0", got)
			}
		})
	}
}

func TestLoadGamesSilentFallback(t *testing.T) {
	tests := []struct {
		name  string
		games func(context.Context) ([]model.GameListing, error)
	}{
		{"fetch rejects", nil},
		{"empty result", gamesOf()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeFetcher{games: tt.games}, PolicySilent)

			if got := c.LoadGames(context.Background()); got != model.OutcomeFallback {
				t.Errorf("outcome = %q, want fallback", got)
			}
			if got := text(t, c, GamesCount); got != "3" {
				t.Errorf("games-count = %q, want 3", got)
			}
			if got := text(t, c, VisitsCount); got != "370.0K" {
				t.Errorf("visits-count = %q, want 370.0K", got)
			}
			doc := containerDoc(t, c, GamesContainer)
			if n := doc.Find(".game-card").Length(); n != 3 {
				t.Errorf("cards = %d, want 3", n)
			}
			if doc.Find(".error-message").Length() != 0 {
				t.Error("silent fallback rendered an error")
			}
		})
	}
}

func TestGameTitleRendersAsText(t *testing.T) {
	name := `<img src=x onerror=alert(1)>Evil`
	f := &fakeFetcher{
		games:  gamesOf(model.GameListing{ID: 1, Name: name, PlaceVisits: 1}),
		passes: noPasses,
		detail: noDetail,
	}
	c := newTestController(f, PolicyVisible)
	c.LoadGames(context.Background())

	doc := containerDoc(t, c, GamesContainer)
	if got := doc.Find(".game-card h3").Text(); got != name {
		t.Errorf("title = %q, want literal %q", got, name)
	}
	if doc.Find(".game-card h3 img").Length() != 0 {
		t.Error("title markup was parsed")
	}
	if doc.Find("img[onerror]").Length() != 0 {
		t.Error("injected attribute reached the page")
	}
}

func TestGameThumbnail(t *testing.T) {
	placeholder := render.PlaceholderImage("Game Image")
	tests := []struct {
		name string
		icon func(context.Context, int64) (string, error)
		want string
	}{
		{"icon", func(context.Context, int64) (string, error) { return "https://cdn.example/1.png", nil }, "https://cdn.example/1.png"},
		{"empty", func(context.Context, int64) (string, error) { return "", nil }, placeholder},
		{"error", nil, placeholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(&fakeFetcher{icon: tt.icon}, PolicyVisible)
			if got := c.GameThumbnail(context.Background(), 1); got != tt.want {
				t.Errorf("GameThumbnail() = %.50q, want %.50q", got, tt.want)
			}
		})
	}
}

func TestGamePrice(t *testing.T) {
	p := func(v int64) *int64 { return &v }

	tests := []struct {
		name        string
		passes      func(context.Context, int64) ([]roblox.GamePass, error)
		detail      func(context.Context, int64) (roblox.GameDetail, error)
		want        *int64
		detailCalls int32
	}{
		{
			name:   "pass price wins",
			passes: func(context.Context, int64) ([]roblox.GamePass, error) { return []roblox.GamePass{{Price: p(75)}}, nil },
			detail: func(context.Context, int64) (roblox.GameDetail, error) { return roblox.GameDetail{Price: p(5)}, nil },
			want:   p(75),
		},
		{
			name:        "falls back to game record",
			passes:      func(context.Context, int64) ([]roblox.GamePass, error) { return []roblox.GamePass{{Price: nil}}, nil },
			detail:      func(context.Context, int64) (roblox.GameDetail, error) { return roblox.GameDetail{Price: p(5)}, nil },
			want:        p(5),
			detailCalls: 1,
		},
		{
			name:        "zero pass price is no price",
			passes:      func(context.Context, int64) ([]roblox.GamePass, error) { return []roblox.GamePass{{Price: p(0)}}, nil },
			detail:      noDetail,
			want:        nil,
			detailCalls: 1,
		},
		{
			name:        "neither source",
			passes:      noPasses,
			detail:      noDetail,
			want:        nil,
			detailCalls: 1,
		},
		{
			name:   "pass lookup fails",
			passes: nil,
			detail: func(context.Context, int64) (roblox.GameDetail, error) { return roblox.GameDetail{Price: p(5)}, nil },
			want:   nil,
		},
		{
			name: "passes not found uses game record",
			passes: func(context.Context, int64) ([]roblox.GamePass, error) {
				return nil, fmt.Errorf("game passes: %w", roblox.ErrNotFound)
			},
			detail:      func(context.Context, int64) (roblox.GameDetail, error) { return roblox.GameDetail{Price: p(50)}, nil },
			want:        p(50),
			detailCalls: 1,
		},
		{
			name:        "detail lookup fails",
			passes:      noPasses,
			detail:      nil,
			want:        nil,
			detailCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{passes: tt.passes, detail: tt.detail}
			c := newTestController(f, PolicyVisible)

			got := c.GamePrice(context.Background(), 1)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("GamePrice() = %d, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("GamePrice() = %v, want %d", got, *tt.want)
			}
			if n := atomic.LoadInt32(&f.detailCalls); n != tt.detailCalls {
				t.Errorf("GameDetail calls = %d, want %d", n, tt.detailCalls)
			}
		})
	}
}

func TestGamePriceWithoutPassesListing(t *testing.T) {
	var detailHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/economy/games/7/game-passes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"code":0,"message":"NotFound"}]}`))
	})
	mux.HandleFunc("/games/games/7", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&detailHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"price":50}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := roblox.New("1",
		roblox.WithHTTPClient(srv.Client()),
		roblox.WithBaseURLs(roblox.BaseURLs{
			Groups:     srv.URL + "/groups",
			Games:      srv.URL + "/games",
			Thumbnails: srv.URL + "/thumbnails",
			Economy:    srv.URL + "/economy",
		}),
	)
	c := newTestController(client, PolicySilent)

	got := c.GamePrice(context.Background(), 7)
	if got == nil || *got != 50 {
		t.Errorf("GamePrice() = %v, want 50 from the game record", got)
	}
	if n := atomic.LoadInt32(&detailHits); n != 1 {
		t.Errorf("game record requested %d times, want 1", n)
	}
}

func TestLoadEventsAndMerchandise(t *testing.T) {
	silent := newTestController(&fakeFetcher{}, PolicySilent)
	if got := silent.LoadEvents(context.Background()); got != model.OutcomeFallback {
		t.Errorf("events outcome = %q", got)
	}
	if n := containerDoc(t, silent, EventsContainer).Find(".event-card").Length(); n != 3 {
		t.Errorf("event cards = %d, want 3", n)
	}
	silent.LoadMerchandise(context.Background())
	if n := containerDoc(t, silent, MerchandiseContainer).Find(".merchandise-card").Length(); n != 4 {
		t.Errorf("merchandise cards = %d, want 4", n)
	}

	visible := newTestController(&fakeFetcher{}, PolicyVisible)
	if got := visible.LoadEvents(context.Background()); got != model.OutcomeError {
		t.Errorf("events outcome = %q, want error", got)
	}
	if got := text(t, visible, EventsContainer); got != msgEventsFailed {
		t.Errorf("events-container = %q", got)
	}
	visible.LoadMerchandise(context.Background())
	if got := text(t, visible, MerchandiseContainer); got != msgMerchandiseFailed {
		t.Errorf("merchandise-container = %q", got)
	}
}

func TestShowError(t *testing.T) {
	c := newTestController(&fakeFetcher{}, PolicyVisible)

	c.ShowError("no-such-container", "ignored")
	if _, ok := c.Document().Get("no-such-container"); ok {
		t.Error("ShowError created an unknown container")
	}

	c.ShowError(EventsContainer, "Something <broke>")
	first, _ := c.Document().Get(EventsContainer)
	c.ShowError(EventsContainer, "Something <broke>")
	second, _ := c.Document().Get(EventsContainer)
	if first != second {
		t.Error("ShowError is not idempotent")
	}
	if got := text(t, c, EventsContainer); got != "Something <broke>" {
		t.Errorf("message = %q", got)
	}
}

func TestFallbackDelayHonorsContext(t *testing.T) {
	c := NewController(&fakeFetcher{}, NewDocument(), Options{Policy: PolicySilent, FallbackDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.LoadEvents(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("LoadEvents ignored context deadline during fallback delay")
	}
}

func TestStopDuringFallbackDelayLeavesPageUntouched(t *testing.T) {
	rec := &memoryRecorder{}
	c := NewController(&fakeFetcher{}, NewDocument(), Options{
		Policy:        PolicySilent,
		FallbackDelay: 300 * time.Millisecond,
		History:       rec,
		Now:           newTickingClock().Now,
	})

	c.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	for _, id := range []string{MembersCount, GamesCount, VisitsCount} {
		if got := text(t, c, id); got != "" {
			t.Errorf("%s = %q after Stop, want untouched", id, got)
		}
	}
	for _, id := range []string{GamesContainer, EventsContainer, MerchandiseContainer} {
		doc := containerDoc(t, c, id)
		if doc.Find(".loading").Length() != 1 {
			t.Errorf("%s lost its loading indicator", id)
		}
		if n := doc.Find(".game-card, .event-card, .merchandise-card").Length(); n != 0 {
			t.Errorf("%s has %d fallback cards after Stop", id, n)
		}
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.records) != 0 {
		t.Errorf("recorded %d history rows for canceled loads", len(rec.records))
	}
}

func TestRefreshGamesCanceledKeepsTimestamp(t *testing.T) {
	f := &fakeFetcher{
		games: func(ctx context.Context) ([]model.GameListing, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c := newTestController(f, PolicySilent)
	at := time.Date(2024, 8, 25, 9, 0, 0, 0, time.Local)
	c.Document().Stamp(at)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := c.RefreshGames(ctx); got != model.OutcomeError {
		t.Errorf("RefreshGames() = %q, want %q", got, model.OutcomeError)
	}
	if !c.Document().LastUpdatedAt().Equal(at) {
		t.Errorf("last updated moved to %v after canceled refresh", c.Document().LastUpdatedAt())
	}
}

func TestStartLoadsAllRegionsIndependently(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		// Group info hangs until released; the others must not wait for it.
		group: func(ctx context.Context) (model.GroupSummary, error) {
			select {
			case <-release:
				return model.GroupSummary{MemberCount: 12}, nil
			case <-ctx.Done():
				return model.GroupSummary{}, ctx.Err()
			}
		},
		games:  gamesOf(model.GameListing{ID: 1, Name: "One", PlaceVisits: 10}),
		passes: noPasses,
		detail: noDetail,
	}
	rec := &memoryRecorder{}
	c := NewController(f, NewDocument(), Options{Policy: PolicySilent, History: rec, Now: newTickingClock().Now})

	c.Start(context.Background())
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for len(rec.byRegion(model.RegionGames)) == 0 || len(rec.byRegion(model.RegionMerchandise)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("games/merchandise did not load while group info was pending")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if c.Ready() {
		t.Error("Ready() before group info finished")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	if got := text(t, c, MembersCount); got != "12" {
		t.Errorf("members-count = %q, want 12", got)
	}
	if got := text(t, c, GamesCount); got != "1" {
		t.Errorf("games-count = %q, want 1", got)
	}
	if text(t, c, LastUpdated) == "" {
		t.Error("last-updated not stamped")
	}
	for _, region := range []string{model.RegionGroup, model.RegionGames, model.RegionEvents, model.RegionMerchandise} {
		if n := len(rec.byRegion(region)); n != 1 {
			t.Errorf("%s records = %d, want 1", region, n)
		}
	}
}

func TestStartShowsLoading(t *testing.T) {
	block := make(chan struct{})
	f := &fakeFetcher{
		games: func(ctx context.Context) ([]model.GameListing, error) {
			select {
			case <-block:
			case <-ctx.Done():
			}
			return nil, errUpstream
		},
	}
	c := NewController(f, NewDocument(), Options{Policy: PolicyVisible})
	c.Start(context.Background())
	defer c.Stop()
	defer close(block)

	if containerDoc(t, c, GamesContainer).Find(".loading").Length() != 1 {
		t.Error("games container should show loading while fetch is pending")
	}
}

func TestPeriodicRefresh(t *testing.T) {
	f := &fakeFetcher{
		group:  func(context.Context) (model.GroupSummary, error) { return model.GroupSummary{MemberCount: 1}, nil },
		games:  gamesOf(model.GameListing{ID: 1, Name: "One", PlaceVisits: 10}),
		passes: noPasses,
		detail: noDetail,
	}
	c := NewController(f, NewDocument(), Options{
		Policy:          PolicyVisible,
		RefreshInterval: 20 * time.Millisecond,
		Now:             newTickingClock().Now,
	})

	c.Start(context.Background())
	initial := c.Document().LastUpdatedAt()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&f.gamesCalls) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("games loaded %d times, want at least 3", atomic.LoadInt32(&f.gamesCalls))
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Stop()
	if !c.Document().LastUpdatedAt().After(initial) {
		t.Errorf("last updated %v not after initial %v", c.Document().LastUpdatedAt(), initial)
	}

	calls := atomic.LoadInt32(&f.gamesCalls)
	time.Sleep(60 * time.Millisecond)
	if after := atomic.LoadInt32(&f.gamesCalls); after != calls {
		t.Errorf("games loaded %d more times after Stop", after-calls)
	}
}

func TestStartAndStopAreIdempotent(t *testing.T) {
	f := &fakeFetcher{games: gamesOf(), passes: noPasses, detail: noDetail}
	c := NewController(f, NewDocument(), Options{Policy: PolicyVisible})

	c.Start(context.Background())
	c.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if n := atomic.LoadInt32(&f.gamesCalls); n != 1 {
		t.Errorf("games loaded %d times, want 1", n)
	}

	c.Stop()
	c.Stop()
}

func TestOverlappingRefreshesStayConsistent(t *testing.T) {
	var n int64
	f := &fakeFetcher{
		games: func(context.Context) ([]model.GameListing, error) {
			k := atomic.AddInt64(&n, 1)
			list := make([]model.GameListing, k)
			for i := range list {
				list[i] = model.GameListing{ID: int64(i + 1), Name: "G", PlaceVisits: 100}
			}
			return list, nil
		},
		passes: noPasses,
		detail: noDetail,
	}
	c := newTestController(f, PolicyVisible)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RefreshGames(context.Background())
		}()
	}
	wg.Wait()

	games := c.Games()
	cards := containerDoc(t, c, GamesContainer).Find(".game-card").Length()
	if cards != len(games) {
		t.Errorf("cards = %d but games = %d", cards, len(games))
	}
	if got, want := text(t, c, GamesCount), strconv.Itoa(len(games)); got != want {
		t.Errorf("games-count = %q, want %s", got, want)
	}
	if got, want := text(t, c, VisitsCount), render.FormatNumber(model.TotalVisits(games)); got != want {
		t.Errorf("visits-count = %q, want %q", got, want)
	}
}

func TestHistoryOutcomes(t *testing.T) {
	rec := &memoryRecorder{}
	c := NewController(&fakeFetcher{}, NewDocument(), Options{Policy: PolicyVisible, History: rec})

	c.LoadGroupInfo(context.Background())
	c.LoadGames(context.Background())

	group := rec.byRegion(model.RegionGroup)
	if len(group) != 1 || group[0].Outcome != model.OutcomeError || group[0].ErrorMessage == "" {
		t.Errorf("group records = %+v", group)
	}
	games := rec.byRegion(model.RegionGames)
	if len(games) != 1 || games[0].Outcome != model.OutcomeError {
		t.Errorf("games records = %+v", games)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{"silent": PolicySilent, " Visible ": PolicyVisible} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("loud"); err == nil {
		t.Error("ParsePolicy(loud) expected error")
	}
}
