package handler

import (
	"context"
	"io"
	"time"

	"imagination-site-api/internal/page"
)

// StartTime tracks when the server started for uptime calculation.
var StartTime = time.Now()

// PageSource is the page the handlers serve. *page.Controller satisfies it.
type PageSource interface {
	Ready() bool
	RenderPage(w io.Writer) error
	Snapshot() page.Snapshot
	RefreshGames(ctx context.Context) string
}
