// Package web embeds the page templates and browser assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// FuncMap is sprig's HTML-safe function set plus the page helpers
func FuncMap() template.FuncMap {
	funcs := sprig.HtmlFuncMap()
	funcs["coord"] = formatCoord
	return funcs
}

// Templates parses every embedded page and partial
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Static serves the embedded static directory
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// formatCoord renders a coordinate the way the registry receives it
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
