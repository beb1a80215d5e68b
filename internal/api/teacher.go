package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// TeacherDashboard returns the teacher's subject, the student headcount and
// today's present count.
func (h *Handlers) TeacherDashboard(c *gin.Context) {
	sess, _ := auth.Identity(c)
	ctx := c.Request.Context()

	teacher, err := h.users.GetByID(ctx, sess.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	students, err := h.users.CountByRole(ctx, roster.RoleStudent)
	if err != nil {
		writeErr(c, err)
		return
	}
	today := time.Now().Format(attendance.DateLayout)
	present, err := h.attRepo.PresentOn(ctx, sess.UserID, today)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":        teacher.SubjectOrEmpty(),
		"total_students": students,
		"today_present":  present,
	})
}

// TeacherMarkAttendanceForm returns the student list plus any sheet already
// recorded for the requested date (default today), so prior marks are
// redisplayed.
func (h *Handlers) TeacherMarkAttendanceForm(c *gin.Context) {
	sess, _ := auth.Identity(c)
	ctx := c.Request.Context()

	date, subject, sheet, err := h.att.SheetFor(ctx, sess.UserID, c.Query("date"))
	if err != nil {
		writeErr(c, err)
		return
	}
	students, err := h.users.ListByRole(ctx, roster.RoleStudent)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":     date,
		"subject":  subject,
		"students": students,
		"sheet":    sheet,
	})
}

// TeacherMarkAttendance records the teacher's own sheet.
func (h *Handlers) TeacherMarkAttendance(c *gin.Context) {
	sess, _ := auth.Identity(c)
	h.markSheet(c, sess.UserID)
}

// TeacherReports returns every student's percentage over this teacher's
// records.
func (h *Handlers) TeacherReports(c *gin.Context) {
	sess, _ := auth.Identity(c)
	ctx := c.Request.Context()

	teacher, err := h.users.GetByID(ctx, sess.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	stats, err := h.att.TeacherReport(ctx, sess.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subject":       teacher.SubjectOrEmpty(),
		"student_stats": stats,
	})
}
