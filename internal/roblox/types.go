package roblox

import "imagination-site-api/internal/model"

// relayEnvelope is the relay's wrapper around the target body.
type relayEnvelope struct {
	Contents string `json:"contents"`
}

type groupResponse struct {
	MemberCount *int64 `json:"memberCount"`
}

type gamesResponse struct {
	Data []model.GameListing `json:"data"`
}

type iconsResponse struct {
	Data []struct {
		TargetID int64  `json:"targetId"`
		State    string `json:"state"`
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

type passesResponse struct {
	Data []GamePass `json:"data"`
}

// GamePass is an access pass sold inside a game.
type GamePass struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price *int64 `json:"price"`
}

// GameDetail is the subset of a game record the page reads.
type GameDetail struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price *int64 `json:"price"`
}
