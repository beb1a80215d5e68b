package api

import "github.com/prometheus/client_golang/prometheus"

var (
	loginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_login_attempts_total",
		Help: "Login attempts by outcome.",
	}, []string{"result"})

	marksWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_attendance_marks_total",
		Help: "Attendance marks written, counting upserts.",
	})
)

func init() {
	prometheus.MustRegister(loginAttempts, marksWritten)
}
