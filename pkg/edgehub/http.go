package edgehub

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Handler returns the management routes: Prometheus metrics, health and
// read-only access to the latest-value caches.
func (e *EdgeRuntime) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", e.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/cache/{kind}", e.handleCacheNames).Methods(http.MethodGet)
	r.HandleFunc("/cache/{kind}/{name}", e.handleCacheEntry).Methods(http.MethodGet)
	return r
}

func (e *EdgeRuntime) startHTTP() {
	if e.cfg.Metrics.Addr == "" {
		return
	}
	e.metricsSrv = &http.Server{
		Addr:    e.cfg.Metrics.Addr,
		Handler: e.Handler(),
	}
	srv := e.metricsSrv
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.obs.LogError("metrics_server_exited", err, ports.F("addr", srv.Addr))
		}
	}()
}

func (e *EdgeRuntime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	body := map[string]any{"started": e.coord.Started()}
	if !e.coord.Started() {
		status = http.StatusServiceUnavailable
	}
	if e.pubsub != nil {
		body["pubsub"] = e.pubsub.Name()
		body["pubsub_connected"] = e.pubsub.IsConnected()
	}
	writeJSON(w, status, body)
}

func (e *EdgeRuntime) handleCacheNames(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseRecordKind(mux.Vars(r)["kind"])
	if !ok {
		http.Error(w, "unknown record kind", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, e.coord.CachedNames(kind))
}

func (e *EdgeRuntime) handleCacheEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, ok := domain.ParseRecordKind(vars["kind"])
	if !ok {
		http.Error(w, "unknown record kind", http.StatusBadRequest)
		return
	}
	rec := e.coord.GetCached(kind, vars["name"])
	if rec == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.codec.Encode(rec))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
