// Package webui serves a plain HTML debug view of the engine's state for
// development. It is disabled in production.
package webui

import (
	"net/http"

	"paradero.urbanbus.org/internal/app"
)

type WebUI struct {
	*app.Application
}

func NewWebUI(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

func (webUI *WebUI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
