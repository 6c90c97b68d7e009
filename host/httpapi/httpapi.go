// Package httpapi exposes the local override surface of a running controller:
// an operator can stop or resume the actuators and read the controller state
// without going through the radio.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"lorastep/controller"
)

// Controller is the part of *controller.Controller the routes need
type Controller interface {
	// RequestStop aborts motion and de-energizes the actuators
	RequestStop()

	// RequestResume re-enables the actuators and restarts motion
	RequestResume()

	// Status returns the latest state snapshot
	Status() controller.Status
}

// NewRouter returns a chi router serving the override routes
func NewRouter(c Controller) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/stop", Stop(c))
	r.Post("/resume", Resume(c))
	r.Get("/status", GetStatus(c))
	r.Get("/route-list", routeList(r))
	return r
}

// Stop returns an HTTP handler func that requests an emergency stop
func Stop(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.RequestStop()
		w.WriteHeader(http.StatusAccepted)
	}
}

// Resume returns an HTTP handler func that requests the actuators be resumed
func Resume(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.Status().LinkUp {
			http.Error(w, "radio link is down, actuators stay disabled", http.StatusServiceUnavailable)
			return
		}
		c.RequestResume()
		w.WriteHeader(http.StatusAccepted)
	}
}

// GetStatus returns an HTTP handler func that writes the status as JSON
func GetStatus(c Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, c.Status())
	}
}

func routeList(r chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var routes []string
		for _, route := range r.Routes() {
			routes = append(routes, route.Pattern)
		}
		respondJSON(w, routes)
	}
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
