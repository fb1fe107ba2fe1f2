package controller

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vestwatch/vestwatch/app/query/types"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// WithCORS allows browser clients from any origin.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet+", "+http.MethodPost+", "+http.MethodOptions)

		// Fast-path the preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods("GET")
	r.HandleFunc("/ws", c.HandleWebSocket)

	r.HandleFunc("/accounts", c.HandleAccounts).Methods("GET")
	r.HandleFunc("/accounts/{name}/snapshot", c.HandleSnapshot).Methods("GET")
	r.HandleFunc("/accounts/{name}/stats", c.HandleStats).Methods("GET")
	r.HandleFunc("/accounts/{name}/refresh", c.HandleRefresh).Methods("POST")
	r.HandleFunc("/accounts/{name}/series/{kind}", c.HandleSeries).Methods("GET")
	r.HandleFunc("/accounts/{name}/ops", c.HandleOps).Methods("GET")
	r.HandleFunc("/accounts/{name}/search", c.HandleSearch).Methods("GET")

	return r, nil
}
