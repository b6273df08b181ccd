// Package handler provides HTTP handlers for the data selector wizard.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ukair/dataselector/internal/api/middleware"
	"github.com/ukair/dataselector/internal/session"
)

// loadState fetches the session's wizard state, creating an empty one for
// a fresh session.
func loadState(ctx context.Context, store session.Store) (*session.WizardState, error) {
	sessionID := middleware.GetSessionID(ctx)

	state, err := store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return session.NewWizardState(), nil
		}
		return nil, err
	}
	return state, nil
}

// saveState writes the session's wizard state back.
func saveState(ctx context.Context, store session.Store, state *session.WizardState) error {
	return store.Put(ctx, middleware.GetSessionID(ctx), state)
}

// decodeBody decodes a step payload from either a JSON body or a posted
// form. The no-JS pages submit forms; API clients send JSON.
func decodeBody(r *http.Request, dst interface{}) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return json.NewDecoder(r.Body).Decode(dst)
	}
	return decodeForm(r, dst)
}

// decodeForm maps known form fields onto the step request types.
func decodeForm(r *http.Request, dst interface{}) error {
	if err := r.ParseForm(); err != nil {
		return err
	}

	switch v := dst.(type) {
	case *pollutantForm:
		if values, ok := r.PostForm["pollutants"]; ok && len(values) > 1 {
			v.Pollutants = values
		} else {
			v.Pollutants = r.PostFormValue("pollutants")
		}
	case *yearForm:
		v.TimePeriod = r.PostFormValue("timePeriod")
	case *locationForm:
		v.Country = r.PostFormValue("country")
		v.LocalAuthorities = r.PostForm["localAuthorities"]
	}
	return nil
}

// Form shapes shared by JSON and form decoding.

type pollutantForm struct {
	Pollutants interface{} `json:"pollutants"`
}

type yearForm struct {
	TimePeriod string `json:"timePeriod"`
}

type locationForm struct {
	Country          interface{} `json:"country"`
	LocalAuthorities []string    `json:"localAuthorities"`
}

// normalizeRaw converts a decoded JSON value into the shapes the
// accumulator understands: string or []string.
func normalizeRaw(raw interface{}) interface{} {
	switch v := raw.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return raw
	}
}
