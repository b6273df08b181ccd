// Package view abstracts page rendering. Templates and markup are owned
// by an external frontend; this service only asks for "render view V with
// data D" or "redirect to path P".
package view

import (
	"encoding/json"
	"net/http"
)

// Renderer renders named views and issues redirects.
type Renderer interface {
	// Render renders the named view with the given data at the given
	// HTTP status.
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{})

	// Redirect sends the client to another wizard path.
	Redirect(w http.ResponseWriter, r *http.Request, path string)
}

// View names rendered by the wizard.
const (
	ErrorView     = "error"
	DownloadView  = "download"
	PollutantView = "pollutant-step"
	YearView      = "year-step"
	LocationView  = "location-step"
	StatusView    = "download-status"
)

// JSONRenderer is the default Renderer: it emits the view name and data
// as JSON, letting an API client or frontend shell do the actual drawing.
type JSONRenderer struct{}

// NewJSONRenderer creates a new JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// payload is the envelope emitted for every rendered view.
type payload struct {
	View string      `json:"view"`
	Data interface{} `json:"data,omitempty"`
}

// Render writes the view envelope as JSON.
func (j *JSONRenderer) Render(w http.ResponseWriter, _ *http.Request, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload{View: name, Data: data})
}

// Redirect issues a 303 so a POST step lands on a GET page.
func (j *JSONRenderer) Redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// Ensure JSONRenderer implements Renderer.
var _ Renderer = (*JSONRenderer)(nil)
