package render

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
)

const placeholderPrefix = "data:image/svg+xml;base64,"

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="200" viewBox="0 0 300 200">` +
	`<rect width="300" height="200" fill="#f8f8f8"/>` +
	`<text x="150" y="100" fill="#666666" font-family="Arial" font-size="16" text-anchor="middle" dominant-baseline="middle">%s</text>` +
	`</svg>`

// PlaceholderImage returns a 300x200 flat-gray image with caption centered,
// encoded as an embeddable data URI.
func PlaceholderImage(caption string) string {
	svg := fmt.Sprintf(placeholderSVG, EscapeHTML(caption))
	return placeholderPrefix + base64.StdEncoding.EncodeToString([]byte(svg))
}

// IsPlaceholder reports whether src was produced by PlaceholderImage.
func IsPlaceholder(src string) bool {
	return strings.HasPrefix(src, placeholderPrefix)
}

// imageSource marks generated placeholders as trusted URLs; anything else
// goes through html/template's URL sanitizer.
func imageSource(src string) any {
	if IsPlaceholder(src) {
		return template.URL(src)
	}
	return src
}
