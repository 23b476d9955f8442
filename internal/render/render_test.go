package render

import (
	"bytes"
	"html/template"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"imagination-site-api/internal/model"
)

func parseFragment(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing rendered HTML: %v", err)
	}
	return doc
}

func TestGameCardEscapesMarkup(t *testing.T) {
	r := MustNew()
	listing := model.GameListing{
		ID:          42,
		Name:        `<script>alert("x")</script>Tower`,
		Description: `<b>bold</b> claims`,
		PlaceVisits: 1500,
	}

	html, err := r.GameCard(NewGameCard(listing, "https://cdn.example/42.png", nil))
	if err != nil {
		t.Fatalf("GameCard() error: %v", err)
	}
	if strings.Contains(string(html), "<script>") || strings.Contains(string(html), "<b>") {
		t.Fatalf("card contains unescaped markup: %s", html)
	}

	doc := parseFragment(t, string(html))
	if got := doc.Find("h3").Text(); got != listing.Name {
		t.Errorf("title text = %q, want literal %q", got, listing.Name)
	}
	if doc.Find("script").Length() != 0 {
		t.Error("title was parsed as a script element")
	}
	if got := doc.Find(".card-content p").Text(); got != listing.Description {
		t.Errorf("description text = %q", got)
	}
	if got := doc.Find(".visits-info").Text(); got != "👥 1.5K visits" {
		t.Errorf("visits = %q", got)
	}
	if got, _ := doc.Find(".visits-info").Attr("title"); got != "1,500 visits" {
		t.Errorf("visits title = %q", got)
	}

	link := doc.Find("a.card-button")
	if href, _ := link.Attr("href"); href != "https://www.roblox.com/games/42" {
		t.Errorf("link href = %q", href)
	}
	if target, _ := link.Attr("target"); target != "_blank" {
		t.Errorf("link target = %q, want _blank", target)
	}
}

func TestGameCardPriceLine(t *testing.T) {
	r := MustNew()
	listing := model.GameListing{ID: 1, Name: "Racing"}

	html, err := r.GameCard(NewGameCard(listing, PlaceholderImage("Game Image"), nil))
	if err != nil {
		t.Fatalf("GameCard() error: %v", err)
	}
	doc := parseFragment(t, string(html))
	if doc.Find(".price-info").Length() != 0 {
		t.Errorf("price line rendered without a price: %s", html)
	}
	for _, bad := range []string{"null", "undefined", "<nil>"} {
		if strings.Contains(string(html), bad) {
			t.Errorf("card contains %q", bad)
		}
	}

	price := int64(2500)
	html, err = r.GameCard(NewGameCard(listing, PlaceholderImage("Game Image"), &price))
	if err != nil {
		t.Fatalf("GameCard() error: %v", err)
	}
	doc = parseFragment(t, string(html))
	if got := doc.Find(".price-info").Text(); got != "💎 2.5K Robux" {
		t.Errorf("price line = %q", got)
	}
}

func TestGameCardDefaultsAndTruncation(t *testing.T) {
	card := NewGameCard(model.GameListing{ID: 3, Name: "x"}, "", nil)
	if card.Description != model.DefaultGameDescription {
		t.Errorf("Description = %q, want default", card.Description)
	}

	long := strings.Repeat("d", 150)
	card = NewGameCard(model.GameListing{ID: 3, Description: long}, "", nil)
	if len(card.Description) != 103 || !strings.HasSuffix(card.Description, "...") {
		t.Errorf("Description = %q, want 100 chars + ellipsis", card.Description)
	}
}

func TestPlaceholderSurvivesURLSanitizer(t *testing.T) {
	r := MustNew()
	src := PlaceholderImage("Game Image")

	html, err := r.GameCard(NewGameCard(model.GameListing{ID: 1, Name: "A"}, src, nil))
	if err != nil {
		t.Fatalf("GameCard() error: %v", err)
	}
	doc := parseFragment(t, string(html))
	if got, _ := doc.Find("img").Attr("src"); got != src {
		t.Errorf("img src = %.60q..., want placeholder data URI", got)
	}

	html, err = r.GameCard(NewGameCard(model.GameListing{ID: 1, Name: "A"}, "javascript:alert(1)", nil))
	if err != nil {
		t.Fatalf("GameCard() error: %v", err)
	}
	if strings.Contains(string(html), "javascript:") {
		t.Error("unsafe thumbnail URL was not sanitized")
	}
}

func TestEventAndMerchandiseCards(t *testing.T) {
	r := MustNew()

	ev, err := r.EventCard(model.EventListing{
		Title: "Meetup <3", Date: "2024-08-30", Description: "Fun", Image: PlaceholderImage("Meetup"), Type: "Social",
	})
	if err != nil {
		t.Fatalf("EventCard() error: %v", err)
	}
	doc := parseFragment(t, string(ev))
	if got := doc.Find("h3").Text(); got != "Meetup <3" {
		t.Errorf("event title = %q", got)
	}
	if got := doc.Find(".event-type").Text(); got != "Social" {
		t.Errorf("event type = %q", got)
	}

	m, err := r.MerchandiseCard(model.MerchandiseItem{
		Title: "Hoodie", Price: "599", Description: "Warm", Image: PlaceholderImage("Hoodie"), Category: "Clothing",
	})
	if err != nil {
		t.Fatalf("MerchandiseCard() error: %v", err)
	}
	doc = parseFragment(t, string(m))
	if got := doc.Find(".price-info").Text(); got != "💎 599 Robux" {
		t.Errorf("merch price = %q", got)
	}
}

func TestLoading(t *testing.T) {
	doc := parseFragment(t, string(MustNew().Loading()))
	if doc.Find(".loading .spinner").Length() != 1 {
		t.Error("loading fragment has no spinner")
	}
}

func TestLoadingLogsTemplateError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	r := &Renderer{tmpl: template.Must(template.New("site").Parse(""))}
	if got := r.Loading(); got != "" {
		t.Errorf("Loading() = %q, want empty on template error", got)
	}
	if !strings.Contains(buf.String(), "[Render] Error rendering loading indicator") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestErrorFragment(t *testing.T) {
	h := ErrorFragment("Failed <to> load")
	doc := parseFragment(t, string(h))
	if got := doc.Find(".error-message p").Text(); got != "Failed <to> load" {
		t.Errorf("error text = %q", got)
	}
	if ErrorFragment("x") != ErrorFragment("x") {
		t.Error("ErrorFragment is not deterministic")
	}
}

func TestPageContainers(t *testing.T) {
	r := MustNew()
	var buf bytes.Buffer
	err := r.Page(&buf, PageData{
		Title:       "Imagination",
		Members:     Text("15.4K"),
		GamesCount:  Text("3"),
		VisitsCount: Text("370.0K"),
		LastUpdated: Text("8/25/2024, 12:00:00 PM"),
		Games:       r.Loading(),
		Events:      ErrorFragment("Failed to load events"),
	})
	if err != nil {
		t.Fatalf("Page() error: %v", err)
	}

	doc := parseFragment(t, buf.String())
	for _, id := range []string{"members-count", "games-container", "games-count", "visits-count", "events-container", "merchandise-container", "last-updated"} {
		if doc.Find("#"+id).Length() != 1 {
			t.Errorf("page missing container #%s", id)
		}
	}
	if got := doc.Find("#members-count").Text(); got != "15.4K" {
		t.Errorf("members-count = %q", got)
	}
	if doc.Find("#games-container .loading").Length() != 1 {
		t.Error("games container should hold the loading fragment")
	}
	if got := doc.Find("#events-container .error-message").Text(); got != "Failed to load events" {
		t.Errorf("events error = %q", got)
	}
}
