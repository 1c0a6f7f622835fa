// Package observe carries the client's metrics and the localhost debug
// server. Metric label sets are bounded (protocol tags only), never
// per-entity values.
package observe

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_messages_received_total",
		Help: "Inbound server messages by protocol tag",
	}, []string{"kind"})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_messages_sent_total",
		Help: "Outbound client messages by protocol tag",
	}, []string{"kind"})

	unknownEntityTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_unknown_entity_total",
		Help: "Updates naming an id absent from the local mirror",
	})

	unknownTagTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_unknown_tag_total",
		Help: "Inbound frames with an unrecognized message tag",
	})

	badMessageTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bad_message_total",
		Help: "Server rejections of our own prior messages",
	})

	framesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_frames_rendered_total",
		Help: "Frames drawn by the render loop",
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_frame_render_duration_seconds",
		Help:    "Time spent drawing one frame",
		Buckets: []float64{0.001, 0.002, 0.005, 0.01, 0.016, 0.033, 0.05},
	})

	notificationCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_notifications_live",
		Help: "Live notification entries",
	})

	sessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_session_state",
		Help: "Session state machine position (0=awaiting .. 4=closed)",
	})
)

// RecordMessage counts one decoded inbound message.
func RecordMessage(kind string) { messagesReceived.WithLabelValues(kind).Inc() }

// RecordOutbound counts one encoded outbound message.
func RecordOutbound(kind string) { messagesSent.WithLabelValues(kind).Inc() }

// RecordUnknownEntity counts one discarded unknown-entity update.
func RecordUnknownEntity() { unknownEntityTotal.Inc() }

// RecordUnknownTag counts one dropped unrecognized frame.
func RecordUnknownTag() { unknownTagTotal.Inc() }

// RecordBadMessage counts one server rejection report.
func RecordBadMessage() { badMessageTotal.Inc() }

// RecordFrame records one drawn frame and its duration.
func RecordFrame(d time.Duration) {
	framesRendered.Inc()
	frameDuration.Observe(d.Seconds())
}

// UpdateNotifications updates the live notification gauge.
func UpdateNotifications(n int) { notificationCount.Set(float64(n)) }

// UpdateSessionState updates the state machine gauge.
func UpdateSessionState(s int) { sessionState.Set(float64(s)) }

// Config configures the debug server.
type Config struct {
	Enabled    bool
	ListenAddr string // localhost only unless explicitly overridden
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StatusFunc supplies the /status payload.
type StatusFunc func() map[string]interface{}

// StartDebugServer starts the internal observability server: pprof, metrics,
// health, and a JSON status snapshot. It must stay on localhost; an external
// bind requires ARENA_ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg Config, status StatusFunc) {
	if !cfg.Enabled {
		log.Println("📊 Debug server disabled")
		return
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ARENA_ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("⚠️ Debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET"},
	}))

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		payload := map[string]interface{}{}
		if status != nil {
			payload = status()
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	go func() {
		log.Printf("📊 Debug server on %s (pprof, /metrics, /status)", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
			log.Printf("⚠️ Debug server error: %v", err)
		}
	}()
}
