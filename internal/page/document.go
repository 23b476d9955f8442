package page

import (
	"html/template"
	"sync"
	"time"

	"imagination-site-api/internal/render"
)

// Container IDs the controller writes into.
const (
	MembersCount         = "members-count"
	GamesContainer       = "games-container"
	GamesCount           = "games-count"
	VisitsCount          = "visits-count"
	EventsContainer      = "events-container"
	MerchandiseContainer = "merchandise-container"
	LastUpdated          = "last-updated"
)

// ContainerIDs lists every known container in page order.
var ContainerIDs = []string{
	MembersCount, GamesCount, VisitsCount,
	GamesContainer, EventsContainer, MerchandiseContainer,
	LastUpdated,
}

// Document is the in-memory page: named containers holding safe HTML.
// Writes to unknown containers are ignored.
type Document struct {
	mu          sync.RWMutex
	containers  map[string]template.HTML
	lastUpdated time.Time
}

// NewDocument creates a document with every known container empty.
func NewDocument() *Document {
	d := &Document{containers: make(map[string]template.HTML, len(ContainerIDs))}
	for _, id := range ContainerIDs {
		d.containers[id] = ""
	}
	return d
}

// SetHTML replaces a container's content. Returns false for unknown IDs.
func (d *Document) SetHTML(id string, h template.HTML) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.containers[id]; !ok {
		return false
	}
	d.containers[id] = h
	return true
}

// SetText replaces a container's content with escaped text.
func (d *Document) SetText(id, text string) bool {
	return d.SetHTML(id, render.Text(text))
}

// Get returns a container's content.
func (d *Document) Get(id string) (template.HTML, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	h, ok := d.containers[id]
	return h, ok
}

// Stamp records t as the last update and writes it into last-updated.
func (d *Document) Stamp(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastUpdated = t
	d.containers[LastUpdated] = render.Text(render.FormatTimestamp(t))
}

// LastUpdatedAt returns the time of the last Stamp.
func (d *Document) LastUpdatedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastUpdated
}

// Contents returns a copy of every container.
func (d *Document) Contents() map[string]template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]template.HTML, len(d.containers))
	for id, h := range d.containers {
		out[id] = h
	}
	return out
}

// PageData maps the containers onto the page template.
func (d *Document) PageData(title string) render.PageData {
	c := d.Contents()
	return render.PageData{
		Title:       title,
		Members:     c[MembersCount],
		GamesCount:  c[GamesCount],
		VisitsCount: c[VisitsCount],
		LastUpdated: c[LastUpdated],
		Games:       c[GamesContainer],
		Events:      c[EventsContainer],
		Merchandise: c[MerchandiseContainer],
	}
}
