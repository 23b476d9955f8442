package page

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"imagination-site-api/internal/model"
	"imagination-site-api/internal/render"
	"imagination-site-api/internal/roblox"
)

// ErrEmptyResult is returned when the group has no games. It is handled
// exactly like a failed fetch.
var ErrEmptyResult = errors.New("no games found")

// errNoSource is recorded for regions without a live data source.
var errNoSource = errors.New("no live source configured")

// Policy decides what a failed fetch looks like on the page.
type Policy string

const (
	// PolicySilent substitutes sample data and logs the cause.
	PolicySilent Policy = "silent"
	// PolicyVisible shows an error message and zeroes the counters.
	PolicyVisible Policy = "visible"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicySilent, PolicyVisible:
		return p, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q", s)
	}
}

// Error messages written under PolicyVisible.
const (
	msgMembersFailed     = "Failed to load member count"
	msgGamesFailed       = "Failed to load games"
	msgEventsFailed      = "Failed to load events"
	msgMerchandiseFailed = "Failed to load merchandise"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultLoadTimeout     = time.Minute
	cardConcurrency        = 4
	recordTimeout          = 5 * time.Second
)

// Fetcher is the upstream the controller reads from. *roblox.Client
// satisfies it.
type Fetcher interface {
	GroupSummary(ctx context.Context) (model.GroupSummary, error)
	GroupGames(ctx context.Context) ([]model.GameListing, error)
	GameIcon(ctx context.Context, gameID int64) (string, error)
	GamePasses(ctx context.Context, gameID int64) ([]roblox.GamePass, error)
	GameDetail(ctx context.Context, gameID int64) (roblox.GameDetail, error)
}

// Recorder persists one record per region load.
type Recorder interface {
	Record(ctx context.Context, rec *model.RefreshRecord) error
}

// Options configures a Controller.
type Options struct {
	Title           string
	Policy          Policy
	RefreshInterval time.Duration
	// FallbackDelay is waited before sample data is shown under PolicySilent.
	FallbackDelay time.Duration
	LoadTimeout   time.Duration
	Renderer      *render.Renderer
	History       Recorder
	Now           func() time.Time
}

// Controller loads the group, games, events and merchandise regions into
// a Document and keeps the games region fresh.
type Controller struct {
	fetcher  Fetcher
	doc      *Document
	opts     Options
	renderer *render.Renderer
	now      func() time.Time

	gamesMu sync.Mutex // serializes overlapping LoadGames calls

	stateMu sync.RWMutex
	games   []model.GameListing

	lifeMu  sync.Mutex
	started bool
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	initial sync.WaitGroup
	ready   chan struct{}
	stopped sync.Once
}

// NewController creates a controller writing into doc.
func NewController(fetcher Fetcher, doc *Document, opts Options) *Controller {
	if opts.Policy == "" {
		opts.Policy = PolicySilent
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.Title == "" {
		opts.Title = "Imagination"
	}
	if opts.Renderer == nil {
		opts.Renderer = render.MustNew()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if doc == nil {
		doc = NewDocument()
	}

	return &Controller{
		fetcher:  fetcher,
		doc:      doc,
		opts:     opts,
		renderer: opts.Renderer,
		now:      opts.Now,
		ready:    make(chan struct{}),
	}
}

// Document returns the document the controller writes into.
func (c *Controller) Document() *Document {
	return c.doc
}

// Policy returns the configured fallback policy.
func (c *Controller) Policy() Policy {
	return c.opts.Policy
}

// Start shows loading placeholders, launches the four region loads without
// waiting for each other, stamps last-updated and starts the refresh loop.
// Calling Start again is a no-op.
func (c *Controller) Start(ctx context.Context) {
	c.lifeMu.Lock()
	if c.started {
		c.lifeMu.Unlock()
		return
	}
	c.started = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.lifeMu.Unlock()

	c.ShowLoading()

	loads := []func(context.Context) string{
		c.LoadGroupInfo,
		c.LoadGames,
		c.LoadEvents,
		c.LoadMerchandise,
	}
	c.initial.Add(len(loads))
	for _, load := range loads {
		load := load
		go func() {
			defer c.initial.Done()
			lctx, lcancel := context.WithTimeout(runCtx, c.opts.LoadTimeout)
			defer lcancel()
			load(lctx)
		}()
	}
	go func() {
		c.initial.Wait()
		close(c.ready)
	}()

	c.doc.Stamp(c.now())

	c.loop.Add(1)
	go c.run(runCtx)

	log.Printf("[PageController] Started - policy:%s, refresh:%v", c.opts.Policy, c.opts.RefreshInterval)
}

func (c *Controller) run(ctx context.Context) {
	defer c.loop.Done()

	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
			c.RefreshGames(rctx)
			cancel()
		case <-ctx.Done():
			log.Printf("[PageController] Refresh loop stopped")
			return
		}
	}
}

// Stop cancels in-flight loads, stops the refresh loop and waits for both.
func (c *Controller) Stop() {
	c.stopped.Do(func() {
		c.lifeMu.Lock()
		cancel := c.cancel
		c.lifeMu.Unlock()

		if cancel != nil {
			cancel()
		}
		c.loop.Wait()
		c.initial.Wait()
	})
}

// Wait blocks until the loads launched by Start have finished or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the initial loads have finished.
func (c *Controller) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// ShowLoading writes the loading indicator into the three list containers.
func (c *Controller) ShowLoading() {
	loading := c.renderer.Loading()
	for _, id := range []string{GamesContainer, EventsContainer, MerchandiseContainer} {
		c.doc.SetHTML(id, loading)
	}
}

// ShowError replaces a container with a one-line message. Unknown
// containers are ignored.
func (c *Controller) ShowError(containerID, message string) {
	c.doc.SetHTML(containerID, render.ErrorFragment(message))
}

// LoadGroupInfo writes the member count.
func (c *Controller) LoadGroupInfo(ctx context.Context) string {
	start := c.now()

	summary, err := c.fetcher.GroupSummary(ctx)
	if err == nil {
		c.doc.SetText(MembersCount, render.FormatNumber(summary.MemberCount))
		c.record(model.RegionGroup, model.OutcomeLive, 1, 0, nil, start)
		return model.OutcomeLive
	}
	if canceled(ctx) {
		return model.OutcomeError
	}

	if c.opts.Policy == PolicyVisible {
		log.Printf("[PageController] Error loading group info: %v", err)
		c.ShowError(MembersCount, msgMembersFailed)
		c.record(model.RegionGroup, model.OutcomeError, 0, 0, err, start)
		return model.OutcomeError
	}

	log.Printf("[PageController] Group info failed, using fallback data: %v", err)
	c.pause(ctx)
	if canceled(ctx) {
		return model.OutcomeError
	}
	c.doc.SetText(MembersCount, render.FormatNumber(FallbackMemberCount))
	c.record(model.RegionGroup, model.OutcomeFallback, 1, 0, err, start)
	return model.OutcomeFallback
}

// LoadGames fetches up to 20 listings, renders one card each in source
// order and writes the games and visits counters. An empty result is a
// failure.
func (c *Controller) LoadGames(ctx context.Context) string {
	c.gamesMu.Lock()
	defer c.gamesMu.Unlock()

	start := c.now()
	outcome := model.OutcomeLive

	games, err := c.fetcher.GroupGames(ctx)
	if err == nil && len(games) == 0 {
		err = ErrEmptyResult
	}
	if err != nil && canceled(ctx) {
		return model.OutcomeError
	}
	if err != nil {
		if c.opts.Policy == PolicyVisible {
			log.Printf("[PageController] Error loading games: %v", err)
			c.showGamesError()
			c.record(model.RegionGames, model.OutcomeError, 0, 0, err, start)
			return model.OutcomeError
		}

		log.Printf("[PageController] Games failed, using fallback data: %v", err)
		c.pause(ctx)
		if canceled(ctx) {
			return model.OutcomeError
		}
		games = SampleGames()
		outcome = model.OutcomeFallback
	}

	cards, cardErr := c.buildGameCards(ctx, games)
	if cardErr != nil && canceled(ctx) {
		return model.OutcomeError
	}
	if cardErr != nil {
		log.Printf("[PageController] Error rendering game cards: %v", cardErr)
		c.showGamesError()
		c.record(model.RegionGames, model.OutcomeError, 0, 0, cardErr, start)
		return model.OutcomeError
	}

	total := model.TotalVisits(games)
	c.doc.SetHTML(GamesContainer, joinHTML(cards))
	c.doc.SetText(GamesCount, strconv.Itoa(len(games)))
	c.doc.SetText(VisitsCount, render.FormatNumber(total))

	c.stateMu.Lock()
	c.games = games
	c.stateMu.Unlock()

	c.record(model.RegionGames, outcome, len(games), total, err, start)
	return outcome
}

func (c *Controller) showGamesError() {
	c.ShowError(GamesContainer, msgGamesFailed)
	c.doc.SetText(GamesCount, "0")
	c.doc.SetText(VisitsCount, "0")

	c.stateMu.Lock()
	c.games = nil
	c.stateMu.Unlock()
}

// buildGameCards renders cards concurrently; cards[i] belongs to games[i].
func (c *Controller) buildGameCards(ctx context.Context, games []model.GameListing) ([]template.HTML, error) {
	cards := make([]template.HTML, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cardConcurrency)
	for i, listing := range games {
		i, listing := i, listing
		g.Go(func() error {
			card, err := c.CreateGameCard(gctx, listing)
			if err != nil {
				return err
			}
			cards[i] = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateGameCard renders one listing with its thumbnail and optional price.
func (c *Controller) CreateGameCard(ctx context.Context, listing model.GameListing) (template.HTML, error) {
	thumbnail := c.GameThumbnail(ctx, listing.ID)
	price := c.GamePrice(ctx, listing.ID)
	return c.renderer.GameCard(render.NewGameCard(listing, thumbnail, price))
}

// GameThumbnail returns the game's icon URL or a generated placeholder.
func (c *Controller) GameThumbnail(ctx context.Context, gameID int64) string {
	url, err := c.fetcher.GameIcon(ctx, gameID)
	if err != nil {
		log.Printf("[PageController] Error fetching thumbnail for %d: %v", gameID, err)
		return render.PlaceholderImage("Game Image")
	}
	if url == "" {
		return render.PlaceholderImage("Game Image")
	}
	return url
}

// GamePrice reads the first access pass price, then the game's own price.
// A game without a passes listing (404) goes straight to the game record.
// Returns nil when neither yields one or a lookup fails.
func (c *Controller) GamePrice(ctx context.Context, gameID int64) *int64 {
	passes, err := c.fetcher.GamePasses(ctx, gameID)
	if err != nil && !roblox.IsNotFound(err) {
		log.Printf("[PageController] Error fetching game price for %d: %v", gameID, err)
		return nil
	}
	if len(passes) > 0 && passes[0].Price != nil && *passes[0].Price > 0 {
		return passes[0].Price
	}

	detail, err := c.fetcher.GameDetail(ctx, gameID)
	if err != nil {
		log.Printf("[PageController] Error fetching game price for %d: %v", gameID, err)
		return nil
	}
	if detail.Price != nil && *detail.Price > 0 {
		return detail.Price
	}
	return nil
}

// LoadEvents renders the sample events, or an error under PolicyVisible.
// No live events source exists.
func (c *Controller) LoadEvents(ctx context.Context) string {
	start := c.now()
	if c.opts.Policy == PolicyVisible {
		c.ShowError(EventsContainer, msgEventsFailed)
		c.record(model.RegionEvents, model.OutcomeError, 0, 0, errNoSource, start)
		return model.OutcomeError
	}

	c.pause(ctx)
	if canceled(ctx) {
		return model.OutcomeError
	}
	events := SampleEvents()
	cards := make([]template.HTML, 0, len(events))
	for _, e := range events {
		card, err := c.renderer.EventCard(e)
		if err != nil {
			log.Printf("[PageController] Error loading events: %v", err)
			c.ShowError(EventsContainer, msgEventsFailed)
			c.record(model.RegionEvents, model.OutcomeError, 0, 0, err, start)
			return model.OutcomeError
		}
		cards = append(cards, card)
	}
	c.doc.SetHTML(EventsContainer, joinHTML(cards))
	c.record(model.RegionEvents, model.OutcomeFallback, len(cards), 0, nil, start)
	return model.OutcomeFallback
}

// LoadMerchandise renders the sample merchandise, or an error under
// PolicyVisible.
func (c *Controller) LoadMerchandise(ctx context.Context) string {
	start := c.now()
	if c.opts.Policy == PolicyVisible {
		c.ShowError(MerchandiseContainer, msgMerchandiseFailed)
		c.record(model.RegionMerchandise, model.OutcomeError, 0, 0, errNoSource, start)
		return model.OutcomeError
	}

	c.pause(ctx)
	if canceled(ctx) {
		return model.OutcomeError
	}
	items := SampleMerchandise()
	cards := make([]template.HTML, 0, len(items))
	for _, m := range items {
		card, err := c.renderer.MerchandiseCard(m)
		if err != nil {
			log.Printf("[PageController] Error loading merchandise: %v", err)
			c.ShowError(MerchandiseContainer, msgMerchandiseFailed)
			c.record(model.RegionMerchandise, model.OutcomeError, 0, 0, err, start)
			return model.OutcomeError
		}
		cards = append(cards, card)
	}
	c.doc.SetHTML(MerchandiseContainer, joinHTML(cards))
	c.record(model.RegionMerchandise, model.OutcomeFallback, len(cards), 0, nil, start)
	return model.OutcomeFallback
}

// RefreshGames reloads the games region and stamps last-updated.
func (c *Controller) RefreshGames(ctx context.Context) string {
	outcome := c.LoadGames(ctx)
	if canceled(ctx) {
		return outcome
	}
	c.doc.Stamp(c.now())
	return outcome
}

// Games returns the listings currently on the page.
func (c *Controller) Games() []model.GameListing {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	out := make([]model.GameListing, len(c.games))
	copy(out, c.games)
	return out
}

// Snapshot is the JSON view of the page.
type Snapshot struct {
	Policy      Policy              `json:"policy"`
	Ready       bool                `json:"ready"`
	Containers  map[string]string   `json:"containers"`
	Games       []model.GameListing `json:"games"`
	TotalVisits int64               `json:"total_visits"`
	LastUpdated time.Time           `json:"last_updated"`
}

// Snapshot captures the current page state.
func (c *Controller) Snapshot() Snapshot {
	games := c.Games()
	contents := c.doc.Contents()
	containers := make(map[string]string, len(contents))
	for id, h := range contents {
		containers[id] = string(h)
	}
	return Snapshot{
		Policy:      c.opts.Policy,
		Ready:       c.Ready(),
		Containers:  containers,
		Games:       games,
		TotalVisits: model.TotalVisits(games),
		LastUpdated: c.doc.LastUpdatedAt(),
	}
}

// RenderPage writes the full HTML page.
func (c *Controller) RenderPage(w io.Writer) error {
	return c.renderer.Page(w, c.doc.PageData(c.opts.Title))
}

// canceled reports whether ctx was canceled (not timed out). A canceled
// load leaves the page untouched.
func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// pause waits FallbackDelay unless ctx ends first.
func (c *Controller) pause(ctx context.Context) {
	if c.opts.FallbackDelay <= 0 {
		return
	}
	t := time.NewTimer(c.opts.FallbackDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (c *Controller) record(region, outcome string, items int, visits int64, cause error, start time.Time) {
	if c.opts.History == nil {
		return
	}

	rec := &model.RefreshRecord{
		Region:      region,
		Outcome:     outcome,
		ItemCount:   items,
		TotalVisits: visits,
		DurationMs:  c.now().Sub(start).Milliseconds(),
		CreatedAt:   c.now(),
	}
	if cause != nil {
		rec.ErrorMessage = cause.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.opts.History.Record(ctx, rec); err != nil {
		log.Printf("[PageController] Failed to record %s refresh: %v", region, err)
	}
}

func joinHTML(parts []template.HTML) template.HTML {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return template.HTML(b.String())
}
