package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log"

	"github.com/dustin/go-humanize"

	"imagination-site-api/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DescriptionLimit is the maximum card description length in characters.
const DescriptionLimit = 100

// GameURL returns the public detail page of a game.
func GameURL(id int64) string {
	return fmt.Sprintf("https://www.roblox.com/games/%d", id)
}

// FormatPrice renders a Robux price line.
func FormatPrice(price int64) string {
	return fmt.Sprintf("💎 %s Robux", FormatNumber(price))
}

// GameCard is the view model of a single game card.
type GameCard struct {
	ID          int64
	Title       string
	Description string
	Visits      string
	VisitsExact string
	Price       string
	Thumbnail   string
	URL         string
}

// NewGameCard builds the card view model for a listing. price may be nil.
func NewGameCard(g model.GameListing, thumbnail string, price *int64) GameCard {
	g = g.WithDefaults()
	card := GameCard{
		ID:          g.ID,
		Title:       g.Name,
		Description: TruncateText(g.Description, DescriptionLimit),
		Visits:      FormatNumber(g.PlaceVisits),
		VisitsExact: humanize.Comma(g.PlaceVisits),
		Thumbnail:   thumbnail,
		URL:         GameURL(g.ID),
	}
	if price != nil {
		card.Price = FormatPrice(*price)
	}
	return card
}

// PageData holds the rendered contents of each page container.
type PageData struct {
	Title       string
	Members     template.HTML
	GamesCount  template.HTML
	VisitsCount template.HTML
	LastUpdated template.HTML
	Games       template.HTML
	Events      template.HTML
	Merchandise template.HTML
}

// Renderer executes the page and fragment templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("site").
		Funcs(template.FuncMap{"imgsrc": imageSource}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustNew is New that panics on error.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// Loading returns the loading indicator fragment.
func (r *Renderer) Loading() template.HTML {
	h, err := r.fragment("loading", nil)
	if err != nil {
		log.Printf("[Render] Error rendering loading indicator: %v", err)
		return ""
	}
	return h
}

// GameCard renders a game card.
func (r *Renderer) GameCard(card GameCard) (template.HTML, error) {
	return r.fragment("game_card", card)
}

// EventCard renders an event card.
func (r *Renderer) EventCard(e model.EventListing) (template.HTML, error) {
	return r.fragment("event_card", e)
}

// MerchandiseCard renders a merchandise card.
func (r *Renderer) MerchandiseCard(m model.MerchandiseItem) (template.HTML, error) {
	return r.fragment("merchandise_card", m)
}

// Page writes the full document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// ErrorFragment is the one-line error message written into a container.
func ErrorFragment(message string) template.HTML {
	return template.HTML(`<div class="error-message"><p>` + EscapeHTML(message) + `</p></div>`)
}

// Text escapes plain text for a container.
func Text(s string) template.HTML {
	return template.HTML(EscapeHTML(s))
}
