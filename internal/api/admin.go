package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// AdminDashboard returns the aggregate totals.
func (h *Handlers) AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.users.CountByRole(ctx, roster.RoleStudent)
	if err != nil {
		writeErr(c, err)
		return
	}
	teachers, err := h.users.CountByRole(ctx, roster.RoleTeacher)
	if err != nil {
		writeErr(c, err)
		return
	}
	records, err := h.attRepo.CountAll(ctx)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_students":   students,
		"total_teachers":   teachers,
		"total_attendance": records,
	})
}

// ListStudents returns every student account.
func (h *Handlers) ListStudents(c *gin.Context) {
	students, err := h.users.ListByRole(c.Request.Context(), roster.RoleStudent)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// AddStudent creates a student account. All fields are required and the
// username must be unique across every role.
func (h *Handlers) AddStudent(c *gin.Context) {
	name := c.PostForm("name")
	username := c.PostForm("username")
	password := c.PostForm("password")
	if blank(name) || blank(username) || password == "" {
		badRequest(c, "all fields are required")
		return
	}
	h.createUser(c, roster.User{Username: username, Role: roster.RoleStudent, Name: name}, password, "student added")
}

// ListTeachers returns every teacher account.
func (h *Handlers) ListTeachers(c *gin.Context) {
	teachers, err := h.users.ListByRole(c.Request.Context(), roster.RoleTeacher)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

// AddTeacher creates a teacher account; teachers additionally carry a
// subject label.
func (h *Handlers) AddTeacher(c *gin.Context) {
	name := c.PostForm("name")
	username := c.PostForm("username")
	password := c.PostForm("password")
	subject := c.PostForm("subject")
	if blank(name) || blank(username) || password == "" || blank(subject) {
		badRequest(c, "all fields are required")
		return
	}
	h.createUser(c, roster.User{Username: username, Role: roster.RoleTeacher, Name: name, Subject: &subject}, password, "teacher added")
}

func (h *Handlers) createUser(c *gin.Context, u roster.User, password, message string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		writeErr(c, err)
		return
	}
	u.Password = hash
	created, err := h.users.Create(c.Request.Context(), u)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": message, "user": created})
}

// EditStudent updates a student's name, username and optionally password.
// A blank or whitespace-only password keeps the stored hash.
func (h *Handlers) EditStudent(c *gin.Context) {
	h.editUser(c, roster.RoleStudent, false)
}

// EditTeacher is the teacher variant; subject is required.
func (h *Handlers) EditTeacher(c *gin.Context) {
	h.editUser(c, roster.RoleTeacher, true)
}

func (h *Handlers) editUser(c *gin.Context, role string, withSubject bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	name := c.PostForm("name")
	username := c.PostForm("username")
	if blank(name) || blank(username) {
		badRequest(c, "name and username are required")
		return
	}
	var subject *string
	if withSubject {
		s := c.PostForm("subject")
		if blank(s) {
			badRequest(c, "subject is required")
			return
		}
		subject = &s
	}

	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	if target.Role != role {
		writeErr(c, roster.ErrNotFound)
		return
	}

	var newHash string
	if password := c.PostForm("password"); !blank(password) {
		if newHash, err = auth.HashPassword(password); err != nil {
			writeErr(c, err)
			return
		}
	}
	if err := h.users.Update(ctx, id, name, username, subject, newHash); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": role + " updated"})
}

// DeleteStudent removes a student and all attendance rows referencing them.
func (h *Handlers) DeleteStudent(c *gin.Context) {
	h.deleteUser(c, roster.RoleStudent)
}

// DeleteTeacher removes a teacher and all attendance rows they marked.
func (h *Handlers) DeleteTeacher(c *gin.Context) {
	h.deleteUser(c, roster.RoleTeacher)
}

func (h *Handlers) deleteUser(c *gin.Context, role string) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	target, err := h.users.GetByID(ctx, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	if target.Role != role {
		writeErr(c, roster.ErrNotFound)
		return
	}
	if err := h.users.Delete(ctx, id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": role + " deleted"})
}

// AdminMarkAttendanceForm returns the data the marking form needs.
func (h *Handlers) AdminMarkAttendanceForm(c *gin.Context) {
	ctx := c.Request.Context()
	teachers, err := h.users.ListByRole(ctx, roster.RoleTeacher)
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
		"teachers": teachers,
		"students": students,
		"today":    time.Now().Format(attendance.DateLayout),
	})
}

// AdminMarkAttendance records a sheet on behalf of the selected teacher.
func (h *Handlers) AdminMarkAttendance(c *gin.Context) {
	teacherID, err := strconv.ParseInt(c.PostForm("teacher_id"), 10, 64)
	if err != nil || teacherID <= 0 {
		badRequest(c, "teacher_id required")
		return
	}
	h.markSheet(c, teacherID)
}

// markSheet is shared by the admin and teacher marking endpoints. The
// response redisplays the submitted date's sheet so the caller can confirm
// or correct.
func (h *Handlers) markSheet(c *gin.Context, teacherID int64) {
	date := c.PostForm("date")
	marks, ok := parseMarks(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	subject, err := h.att.MarkSheet(ctx, teacherID, date, marks)
	if err != nil {
		writeErr(c, err)
		return
	}
	marksWritten.Add(float64(len(marks)))

	_, _, sheet, err := h.att.SheetFor(ctx, teacherID, date)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "attendance recorded",
		"date":    date,
		"subject": subject,
		"sheet":   sheet,
	})
}

// AdminReports returns attendance rows for one student, optionally bounded
// by an inclusive date range. Without a student filter it returns no rows
// rather than an unbounded dump.
func (h *Handlers) AdminReports(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.users.ListByRole(ctx, roster.RoleStudent)
	if err != nil {
		writeErr(c, err)
		return
	}

	rows := []attendance.ReportRow{}
	if raw := c.Query("student_id"); raw != "" {
		studentID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || studentID <= 0 {
			badRequest(c, "invalid student_id")
			return
		}
		rows, err = h.attRepo.FilteredReport(ctx, studentID, c.Query("date_from"), c.Query("date_to"))
		if err != nil {
			writeErr(c, err)
			return
		}
		if rows == nil {
			rows = []attendance.ReportRow{}
		}
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "attendance": rows})
}
