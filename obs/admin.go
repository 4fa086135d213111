package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AdminRouter serves the metrics and health endpoints on the separate
// admin listener. It never shares a port with proxied traffic.
func AdminRouter(m *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}
