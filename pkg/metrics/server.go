package metrics

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer builds the ops HTTP server: /metrics plus whatever routes
// register adds (health probes, status API). The caller owns ListenAndServe
// and Shutdown.
func NewServer(port int, m *Metrics, register func(mux *http.ServeMux)) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><h1>wordbot</h1><p><a href="/metrics">/metrics</a> <a href="/api/v1/status">/api/v1/status</a></p></body></html>`)
	})
	if register != nil {
		register(mux)
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
