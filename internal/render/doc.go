// Package render turns page data into HTML.
//
// Formatting helpers are pure functions. Card, loading and page markup is
// produced through html/template so every remote-sourced string is escaped
// at the boundary; the only values trusted as URLs are placeholder images
// generated by PlaceholderImage.
package render
