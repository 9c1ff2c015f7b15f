package handler

import (
	"embed"
	"net/http"
)

//go:embed static/app.css
var staticFS embed.FS

func handleStatic(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/app.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}
