package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
)

// StudentDashboard returns the student's own rollup across all teachers.
func (h *Handlers) StudentDashboard(c *gin.Context) {
	sess, _ := auth.Identity(c)
	summary, err := h.att.StudentSummary(c.Request.Context(), sess.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StudentViewAttendance returns the student's records with teacher names,
// newest first.
func (h *Handlers) StudentViewAttendance(c *gin.Context) {
	sess, _ := auth.Identity(c)
	records, err := h.attRepo.StudentHistory(c.Request.Context(), sess.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	if records == nil {
		records = []attendance.ReportRow{}
	}
	c.JSON(http.StatusOK, gin.H{"attendance": records})
}
