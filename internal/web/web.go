// Package web embeds the single-page application shell.
package web

import _ "embed"

//go:embed dist/index.html
var indexHTML []byte

// IndexHTML returns the page shell served for every browser route.
func IndexHTML() []byte {
	return indexHTML
}
