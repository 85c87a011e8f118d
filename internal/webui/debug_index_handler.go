package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"paradero.urbanbus.org/internal/appconf"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		slog.Error("failed to parse debug template", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	if err := tmpl.Execute(w, dataStruct); err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}
	dataType := r.URL.Query().Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "status":
		data = map[string]interface{}{
			"healthy":       webUI.GtfsManager.IsHealthy(),
			"staticUpdated": webUI.GtfsManager.LastUpdated().Format(time.RFC3339),
			"lastPoll":      webUI.GtfsManager.LastPoll().Format(time.RFC3339),
			"timezone":      webUI.GtfsManager.Location().String(),
		}
		title = "Engine - Status"
	case "cache":
		data = webUI.GtfsManager.DumpCache(r.URL.Query().Get("route"))
		title = "Realtime - Observation Cache"
	case "alerts":
		data = webUI.GtfsManager.GetAlerts()
		title = "Realtime - Service Alerts"
	case "services":
		services, err := webUI.GtfsManager.ActiveServicesForDate(r.Context(), webUI.Clock.Now().In(webUI.GtfsManager.Location()))
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = services
		}
		title = "Static - Active Services Today"
	default:
		data = map[string]string{
			"error": "Please use one of the following: status, cache, alerts, services.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
