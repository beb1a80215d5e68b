package api

import (
	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// Register wires the role surfaces onto the router. loginLimiter guards the
// login endpoint; pass nil to disable (tests).
func (h *Handlers) Register(r *gin.Engine, loginLimiter gin.HandlerFunc) {
	if loginLimiter != nil {
		r.POST("/login", loginLimiter, h.Login)
	} else {
		r.POST("/login", h.Login)
	}
	r.GET("/logout", h.Logout)

	admin := r.Group("/admin", auth.RequireRole(h.sessions, roster.RoleAdmin))
	admin.GET("/dashboard", h.AdminDashboard)
	admin.GET("/manage-students", h.ListStudents)
	admin.POST("/manage-students", h.AddStudent)
	admin.GET("/manage-teachers", h.ListTeachers)
	admin.POST("/manage-teachers", h.AddTeacher)
	admin.POST("/edit-student/:id", h.EditStudent)
	admin.POST("/delete-student/:id", h.DeleteStudent)
	admin.POST("/edit-teacher/:id", h.EditTeacher)
	admin.POST("/delete-teacher/:id", h.DeleteTeacher)
	admin.GET("/mark-attendance", h.AdminMarkAttendanceForm)
	admin.POST("/mark-attendance", h.AdminMarkAttendance)
	admin.GET("/reports", h.AdminReports)

	teacher := r.Group("/teacher", auth.RequireRole(h.sessions, roster.RoleTeacher))
	teacher.GET("/dashboard", h.TeacherDashboard)
	teacher.GET("/mark-attendance", h.TeacherMarkAttendanceForm)
	teacher.POST("/mark-attendance", h.TeacherMarkAttendance)
	teacher.GET("/reports", h.TeacherReports)

	student := r.Group("/student", auth.RequireRole(h.sessions, roster.RoleStudent))
	student.GET("/dashboard", h.StudentDashboard)
	student.GET("/view-attendance", h.StudentViewAttendance)
}
