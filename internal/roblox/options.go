package roblox

import (
	"net/http"
	"time"

	"imagination-site-api/internal/cache"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithBaseURLs overrides the upstream API bases. Empty fields keep defaults.
func WithBaseURLs(b BaseURLs) Option {
	return func(c *Client) {
		if b.Groups != "" {
			c.bases.Groups = b.Groups
		}
		if b.Games != "" {
			c.bases.Games = b.Games
		}
		if b.Thumbnails != "" {
			c.bases.Thumbnails = b.Thumbnails
		}
		if b.Economy != "" {
			c.bases.Economy = b.Economy
		}
	}
}

// WithStrategy selects direct or relayed fetching. relayURL is ignored for
// StrategyDirect.
func WithStrategy(s Strategy, relayURL string) Option {
	return func(c *Client) {
		c.strategy = s
		if relayURL != "" {
			c.relayURL = relayURL
		}
	}
}

// WithCache memoizes asset lookups (icons, passes, game records) for ttl.
func WithCache(ch cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.assetTTL = ttl
	}
}

// WithUserAgent sets the User-Agent header on upstream requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}
