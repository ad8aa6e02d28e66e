package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager holds the marketplace's Prometheus metrics on a private
// registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	ProductsCreatedTotal prometheus.Counter
	ProductsDeletedTotal prometheus.Counter
	ReviewsTotal         *prometheus.CounterVec
	WishlistToggleTotal  *prometheus.CounterVec
	UploadsTotal         *prometheus.CounterVec
	CleanupFailuresTotal *prometheus.CounterVec
	AuthEventsTotal      *prometheus.CounterVec
	HTTPLatency          *prometheus.HistogramVec
}

func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		ProductsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_created_total",
			Help:      "Total number of listings created.",
		}),
		ProductsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_deleted_total",
			Help:      "Total number of listings deleted.",
		}),
		ReviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Review writes by mode (create, update, delete).",
		}, []string{"mode"}),
		WishlistToggleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wishlist_toggles_total",
			Help:      "Wishlist membership changes by direction (added, removed).",
		}, []string{"direction"}),
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Image uploads by outcome (stored, compensated, orphaned).",
		}, []string{"outcome"}),
		CleanupFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Best-effort cleanup steps that failed, by kind.",
		}, []string{"kind"}),
		AuthEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Session state changes by type.",
		}, []string{"type"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	registry.MustRegister(
		m.ProductsCreatedTotal,
		m.ProductsDeletedTotal,
		m.ReviewsTotal,
		m.WishlistToggleTotal,
		m.UploadsTotal,
		m.CleanupFailuresTotal,
		m.AuthEventsTotal,
		m.HTTPLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsManager) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// Middleware records request latency keyed by the matched route pattern.
func (m *MetricsManager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unknown"
			}

			m.HTTPLatency.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
