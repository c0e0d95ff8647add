// Package metrics содержит Prometheus-метрики сервиса вакансий.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы отклика на вакансию.
const (
	OutcomeApplied             = "applied"
	OutcomeAlreadyApplied      = "already_applied"
	OutcomeInsufficientBalance = "insufficient_balance"
	OutcomeNotFound            = "not_found"
	OutcomeError               = "error"
)

var (
	// Registry содержит коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobmarket",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobmarket",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	applications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobmarket",
			Name:      "applications_total",
			Help:      "Job application attempts by outcome.",
		},
		[]string{"outcome"},
	)

	reseeds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jobmarket",
			Name:      "catalog_reseeds_total",
			Help:      "Number of completed job catalog reseeds.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		applications,
		reseeds,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler возвращает HTTP-обработчик, отдающий метрики.
// Ответ не сжимается: сжатием занимается общий gzip middleware роутера.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{DisableCompression: true})
}

// RecordApply учитывает исход попытки отклика.
func RecordApply(outcome string) {
	applications.WithLabelValues(outcome).Inc()
}

// RecordReseed учитывает завершённое пересоздание каталога.
func RecordReseed() {
	reseeds.Inc()
}

// Middleware собирает метрики HTTP-запросов. Маршрут берётся из шаблона chi,
// чтобы идентификаторы в пути не раздували число серий.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
