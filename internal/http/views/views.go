// Package views embeds the HTML templates of the web interface.
package views

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// Templates parses every embedded page. Pages are addressed by the names they
// define, e.g. "producers/show".
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(files, "*.html")
}
