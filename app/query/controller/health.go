package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
)

// HandleHealth reports ok once every tracked account has refreshed at least
// once, and "starting" before that.
func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	tracked, ready := 0, 0
	for _, name := range c.App.Accounts() {
		t, err := c.App.LoadTracker(name)
		if err != nil {
			continue
		}
		tracked++
		if t.Status().RefreshedAt != nil {
			ready++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if ready < tracked {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "starting", "tracked": tracked, "ready": ready})
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "tracked": tracked, "ready": ready})
}
