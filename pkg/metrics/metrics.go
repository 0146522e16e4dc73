// Package metrics exposes Prometheus collectors for HTTP traffic and
// recruitment workflow events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "placement_portal"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "route"})

	workflowEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "events_total",
		Help:      "Recruitment workflow events by kind.",
	}, []string{"event"})

	notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "email",
		Name:      "notifications_total",
		Help:      "Notification emails by template and outcome.",
	}, []string{"template", "outcome"})

	schedulerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "Scheduled job runs by job and success.",
	}, []string{"job", "success"})

	schedulerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "Duration of scheduled job runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"job"})
)

// Workflow event names
const (
	EventApplicationCreated  = "application_created"
	EventApplicationStatus   = "application_status_changed"
	EventInterviewScheduled  = "interview_scheduled"
	EventJobInvitationSignIn = "job_invitation_sign_in"
	EventAssessmentStarted   = "assessment_started"
	EventAssessmentSubmitted = "assessment_submitted"
	EventResultsDeclared     = "results_declared"
	EventInvitationsExpired  = "invitations_expired"
	EventRateLimited         = "rate_limited"
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		workflowEvents,
		notifications,
		schedulerRuns,
		schedulerDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request counts and latency labelled by route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent increments a workflow counter by n.
func RecordEvent(event string, n int) {
	if n <= 0 {
		return
	}
	workflowEvents.WithLabelValues(event).Add(float64(n))
}

func RecordNotification(template string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	notifications.WithLabelValues(template, outcome).Inc()
}

func RecordSchedulerRun(job string, duration time.Duration, success bool) {
	schedulerRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	schedulerDuration.WithLabelValues(job).Observe(duration.Seconds())
}
