package roblox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"imagination-site-api/internal/cache"
	"imagination-site-api/internal/model"
)

// MaxGames is the page size requested from the group games endpoint.
const MaxGames = 20

const maxBodySize = 4 << 20

// Strategy selects how upstream URLs are fetched.
type Strategy string

const (
	// StrategyDirect requests the upstream URL as-is.
	StrategyDirect Strategy = "direct"
	// StrategyRelay requests {relay}/get?url=<target> and unwraps "contents".
	StrategyRelay Strategy = "relay"
)

// BaseURLs are the upstream API roots.
type BaseURLs struct {
	Groups     string
	Games      string
	Thumbnails string
	Economy    string
}

// DefaultBaseURLs returns the public Roblox API roots.
func DefaultBaseURLs() BaseURLs {
	return BaseURLs{
		Groups:     "https://groups.roblox.com/v1",
		Games:      "https://games.roblox.com/v2",
		Thumbnails: "https://thumbnails.roblox.com/v1",
		Economy:    "https://economy.roblox.com/v1",
	}
}

// DefaultRelayURL is the public relay used by StrategyRelay.
const DefaultRelayURL = "https://api.allorigins.win"

// Client reads group, game and asset data from the Roblox web APIs.
type Client struct {
	groupID   string
	bases     BaseURLs
	http      *http.Client
	strategy  Strategy
	relayURL  string
	userAgent string

	cache    cache.Cache
	assetTTL time.Duration
}

// New creates a client for the given group.
func New(groupID string, opts ...Option) *Client {
	c := &Client{
		groupID:   groupID,
		bases:     DefaultBaseURLs(),
		http:      &http.Client{Timeout: 10 * time.Second},
		strategy:  StrategyDirect,
		relayURL:  DefaultRelayURL,
		userAgent: "imagination-site/2.0",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Strategy reports the configured fetch strategy.
func (c *Client) Strategy() Strategy {
	return c.strategy
}

// GroupSummary handles GET {groups}/groups/{groupId}.
func (c *Client) GroupSummary(ctx context.Context) (model.GroupSummary, error) {
	var dto groupResponse
	target := fmt.Sprintf("%s/groups/%s", c.bases.Groups, url.PathEscape(c.groupID))
	if err := c.getJSON(ctx, target, &dto); err != nil {
		return model.GroupSummary{}, fmt.Errorf("group summary: %w", err)
	}

	summary := model.GroupSummary{}
	if dto.MemberCount != nil && *dto.MemberCount > 0 {
		summary.MemberCount = *dto.MemberCount
	}
	return summary, nil
}

// GroupGames handles GET {games}/groups/{groupId}/games?limit=20.
// Server order is preserved and missing fields are defaulted.
func (c *Client) GroupGames(ctx context.Context) ([]model.GameListing, error) {
	var dto gamesResponse
	target := fmt.Sprintf("%s/groups/%s/games?limit=%d", c.bases.Games, url.PathEscape(c.groupID), MaxGames)
	if err := c.getJSON(ctx, target, &dto); err != nil {
		return nil, fmt.Errorf("group games: %w", err)
	}

	if len(dto.Data) > MaxGames {
		dto.Data = dto.Data[:MaxGames]
	}
	games := make([]model.GameListing, 0, len(dto.Data))
	for _, g := range dto.Data {
		games = append(games, g.WithDefaults())
	}
	return games, nil
}

// GameIcon returns the 512x512 icon URL for a game, or "" when the
// upstream has none.
func (c *Client) GameIcon(ctx context.Context, gameID int64) (string, error) {
	q := url.Values{}
	q.Set("gameIds", strconv.FormatInt(gameID, 10))
	q.Set("returnPolicy", "PlaceHolder")
	q.Set("size", "512x512")
	q.Set("format", "Png")
	q.Set("isCircular", "false")
	target := fmt.Sprintf("%s/games/icons?%s", c.bases.Thumbnails, encodeOrdered(q,
		"gameIds", "returnPolicy", "size", "format", "isCircular"))

	var dto iconsResponse
	if err := c.getAsset(ctx, "icon:"+strconv.FormatInt(gameID, 10), target, &dto); err != nil {
		return "", fmt.Errorf("game icon %d: %w", gameID, err)
	}
	if len(dto.Data) == 0 {
		return "", nil
	}
	return dto.Data[0].ImageURL, nil
}

// GamePasses handles GET {economy}/games/{id}/game-passes.
func (c *Client) GamePasses(ctx context.Context, gameID int64) ([]GamePass, error) {
	var dto passesResponse
	target := fmt.Sprintf("%s/games/%d/game-passes", c.bases.Economy, gameID)
	if err := c.getAsset(ctx, "passes:"+strconv.FormatInt(gameID, 10), target, &dto); err != nil {
		return nil, fmt.Errorf("game passes %d: %w", gameID, err)
	}
	return dto.Data, nil
}

// GameDetail handles GET {games}/games/{id}.
func (c *Client) GameDetail(ctx context.Context, gameID int64) (GameDetail, error) {
	var dto GameDetail
	target := fmt.Sprintf("%s/games/%d", c.bases.Games, gameID)
	if err := c.getAsset(ctx, "game:"+strconv.FormatInt(gameID, 10), target, &dto); err != nil {
		return GameDetail{}, fmt.Errorf("game detail %d: %w", gameID, err)
	}
	return dto, nil
}

// getAsset is getJSON memoized through the cache when one is configured.
func (c *Client) getAsset(ctx context.Context, key, target string, out any) error {
	if c.cache == nil {
		return c.getJSON(ctx, target, out)
	}

	body, err := c.cache.GetOrSet(ctx, key, c.assetTTL, func() ([]byte, error) {
		return c.fetch(ctx, target)
	})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	body, err := c.fetch(ctx, target)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// fetch returns the target's JSON body, unwrapping the relay envelope
// when StrategyRelay is active.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	if c.strategy != StrategyRelay {
		return c.do(ctx, target)
	}

	relayed := fmt.Sprintf("%s/get?url=%s", strings.TrimRight(c.relayURL, "/"), url.QueryEscape(target))
	body, err := c.do(ctx, relayed)
	if err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}

	var env relayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRelayResponse, err)
	}
	if env.Contents == "" {
		return nil, ErrInvalidRelayResponse
	}
	return []byte(env.Contents), nil
}

func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roblox http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &APIError{Status: res.StatusCode, URL: u, Body: strings.TrimSpace(string(b))}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// encodeOrdered encodes q in the given key order so upstream URLs stay
// byte-identical to the documented ones.
func encodeOrdered(q url.Values, keys ...string) string {
	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
