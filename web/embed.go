// Package web embeds the browser shell served at / and /static/.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed index.html static
var content embed.FS

// Static serves the files under static/.
func Static() http.Handler {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err) // static/ is embedded at build time
	}
	return http.FileServer(http.FS(sub))
}

// Index serves the application page.
func Index(w http.ResponseWriter, r *http.Request) {
	data, err := content.ReadFile("index.html")
	if err != nil {
		http.Error(w, "index missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
