package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain counters exposed on /metrics.
var (
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_sessions_created_total",
		Help: "Number of attendance sessions created.",
	})

	AttendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classtrack_attendance_marked_total",
		Help: "Number of attendance records successfully created.",
	})

	AttendanceRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classtrack_attendance_rejected_total",
		Help: "Number of attendance submissions rejected, by reason.",
	}, []string{"reason"})
)
