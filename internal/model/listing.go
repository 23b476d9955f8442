package model

// DefaultGameDescription is shown when a game carries no description.
const DefaultGameDescription = "An amazing game created by Imagination!"

// GroupSummary is the slice of the group record the page displays.
type GroupSummary struct {
	MemberCount int64 `json:"memberCount"`
}

// GameListing represents a single group game.
type GameListing struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PlaceVisits int64  `json:"placeVisits"`
	Price       *int64 `json:"price,omitempty"`
}

// WithDefaults returns a copy with missing fields defaulted.
func (g GameListing) WithDefaults() GameListing {
	if g.Description == "" {
		g.Description = DefaultGameDescription
	}
	if g.PlaceVisits < 0 {
		g.PlaceVisits = 0
	}
	return g
}

// TotalVisits sums PlaceVisits over games. Negative counts are treated as 0.
func TotalVisits(games []GameListing) int64 {
	var total int64
	for _, g := range games {
		if g.PlaceVisits > 0 {
			total += g.PlaceVisits
		}
	}
	return total
}

// EventListing represents a community event card.
type EventListing struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Type        string `json:"type"`
}

// MerchandiseItem represents a merchandise card.
type MerchandiseItem struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
}
