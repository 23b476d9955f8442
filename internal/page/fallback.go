package page

import (
	"imagination-site-api/internal/model"
	"imagination-site-api/internal/render"
)

// FallbackMemberCount is shown when the group lookup fails under PolicySilent.
const FallbackMemberCount int64 = 15420

// SampleGames are substituted for the live games list under PolicySilent.
func SampleGames() []model.GameListing {
	return []model.GameListing{
		{
			ID:          1,
			Name:        "Imagination Tower Defense",
			Description: "Epic tower defense game with amazing graphics and challenging levels!",
			PlaceVisits: 125000,
		},
		{
			ID:          2,
			Name:        "Imagination Racing",
			Description: "High-speed racing with customizable cars and stunning tracks!",
			PlaceVisits: 89000,
		},
		{
			ID:          3,
			Name:        "Imagination Adventure",
			Description: "Explore vast worlds and embark on incredible quests!",
			PlaceVisits: 156000,
		},
	}
}

// SampleEvents are the static event cards.
func SampleEvents() []model.EventListing {
	return []model.EventListing{
		{
			Title:       "Summer Building Contest",
			Date:        "2024-08-25",
			Description: "Show off your building skills in our summer contest! Create amazing structures and win exclusive rewards.",
			Image:       render.PlaceholderImage("Building Contest"),
			Type:        "Contest",
		},
		{
			Title:       "Community Meetup",
			Date:        "2024-08-30",
			Description: "Join us for a fun community meetup event. Meet other members and participate in mini-games!",
			Image:       render.PlaceholderImage("Community Meetup"),
			Type:        "Social",
		},
		{
			Title:       "Game Development Workshop",
			Date:        "2024-09-05",
			Description: "Learn advanced game development techniques from our experienced developers.",
			Image:       render.PlaceholderImage("Workshop"),
			Type:        "Educational",
		},
	}
}

// SampleMerchandise are the static merchandise cards.
func SampleMerchandise() []model.MerchandiseItem {
	return []model.MerchandiseItem{
		{
			Title:       "Imagination T-Shirt",
			Price:       "299",
			Description: "Show your Imagination pride with our official t-shirt! High-quality fabric with our logo.",
			Image:       render.PlaceholderImage("T-Shirt"),
			Category:    "Clothing",
		},
		{
			Title:       "Logo Hoodie",
			Price:       "599",
			Description: "Stay warm and stylish with our premium logo hoodie. Perfect for gaming sessions!",
			Image:       render.PlaceholderImage("Hoodie"),
			Category:    "Clothing",
		},
		{
			Title:       "Gaming Mouse Pad",
			Price:       "199",
			Description: "Enhance your gaming setup with our custom mouse pad featuring the Imagination logo.",
			Image:       render.PlaceholderImage("Mouse Pad"),
			Category:    "Accessories",
		},
		{
			Title:       "Developer Badge",
			Price:       "99",
			Description: "Show off your developer status with this exclusive Imagination developer badge.",
			Image:       render.PlaceholderImage("Badge"),
			Category:    "Digital",
		},
	}
}
