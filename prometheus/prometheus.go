// Package prometheus records session outcomes as Prometheus metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/fwojciec/llmlab/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Interface compliance check.
var _ session.Recorder = (*Recorder)(nil)

// Recorder implements [session.Recorder].
type Recorder struct {
	SessionsStarted  *prometheus.CounterVec
	SessionsFinished *prometheus.CounterVec
	ActiveSessions   *prometheus.GaugeVec
	Fragments        *prometheus.CounterVec
	FragmentBytes    *prometheus.CounterVec
	SessionDuration  *prometheus.HistogramVec
}

// NewRecorder creates the metrics and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llmlab_sessions_started_total",
			Help: "Total number of submitted sessions",
		}, []string{"exercise"}),
		SessionsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llmlab_sessions_finished_total",
			Help: "Total number of sessions that reached a terminal state",
		}, []string{"exercise", "outcome"}),
		ActiveSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llmlab_active_sessions",
			Help: "Current number of sessions in flight",
		}, []string{"exercise"}),
		Fragments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llmlab_fragments_total",
			Help: "Total number of reply fragments applied",
		}, []string{"exercise"}),
		FragmentBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "llmlab_fragment_bytes_total",
			Help: "Total bytes of reply text applied",
		}, []string{"exercise"}),
		SessionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llmlab_session_duration_seconds",
			Help:    "Time from submission to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}, []string{"exercise", "outcome"}),
	}
}

// SessionStarted counts a submission.
func (r *Recorder) SessionStarted(exercise string) {
	r.SessionsStarted.WithLabelValues(exercise).Inc()
	r.ActiveSessions.WithLabelValues(exercise).Inc()
}

// FragmentReceived counts an applied fragment.
func (r *Recorder) FragmentReceived(exercise string, size int) {
	r.Fragments.WithLabelValues(exercise).Inc()
	r.FragmentBytes.WithLabelValues(exercise).Add(float64(size))
}

// SessionFinished records the outcome and duration of a session.
func (r *Recorder) SessionFinished(exercise string, outcome session.State, elapsed time.Duration) {
	r.SessionsFinished.WithLabelValues(exercise, outcome.String()).Inc()
	r.ActiveSessions.WithLabelValues(exercise).Dec()
	r.SessionDuration.WithLabelValues(exercise, outcome.String()).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
