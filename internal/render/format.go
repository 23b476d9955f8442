package render

import (
	"fmt"
	"html"
	"strconv"
	"time"
)

// TimestampLayout is the human-readable "last updated" format.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// FormatNumber abbreviates n: ≥1,000,000 → one decimal + "M",
// ≥1,000 → one decimal + "K", otherwise the plain integer.
// Halves round up.
func FormatNumber(n int64) string {
	switch {
	case n >= 1_000_000:
		return formatTenths(n, 1_000_000, "M")
	case n >= 1_000:
		return formatTenths(n, 1_000, "K")
	default:
		return strconv.FormatInt(n, 10)
	}
}

func formatTenths(n, unit int64, suffix string) string {
	tenths := (n*10 + unit/2) / unit
	return fmt.Sprintf("%d.%d%s", tenths/10, tenths%10, suffix)
}

// TruncateText cuts text to max characters and appends "..." when it was
// longer. Characters are runes, not bytes.
func TruncateText(text string, max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// EscapeHTML escapes text for literal display inside markup.
func EscapeHTML(text string) string {
	return html.EscapeString(text)
}

// FormatTimestamp renders t in local time for the "last updated" line.
func FormatTimestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}
