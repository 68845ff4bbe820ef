package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihongo_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nihongo_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	practiceSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihongo_practice_submissions_total",
			Help: "Practice submissions by outcome (incomplete, failed, passed)",
		},
		[]string{"outcome"},
	)

	practiceSessions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nihongo_practice_sessions_created_total",
			Help: "Practice sessions created",
		},
	)

	authAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihongo_auth_attempts_total",
			Help: "Authentication attempts by kind and result",
		},
		[]string{"kind", "result"},
	)

	lessonLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihongo_lesson_loads_total",
			Help: "Lesson bundle loads by result",
		},
		[]string{"result"},
	)
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func PracticeSubmitted(outcome string) {
	practiceSubmissions.WithLabelValues(outcome).Inc()
}

func PracticeSessionCreated() {
	practiceSessions.Inc()
}

func AuthAttempt(kind string, ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	authAttempts.WithLabelValues(kind, result).Inc()
}

func LessonLoaded(ok bool) {
	result := "error"
	if ok {
		result = "ok"
	}
	lessonLoads.WithLabelValues(result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
