// Package api contains the Gin handlers for the three role surfaces.
// Handlers read form/query parameters, call the repositories and services,
// and map domain errors to HTTP statuses; rendering is left to clients.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// Handlers bundles the dependencies every endpoint needs.
type Handlers struct {
	users        *roster.Repository
	attRepo      *attendance.Repository
	att          *attendance.Service
	sessions     auth.Store
	cookieSecure bool
}

// New creates the handler set.
func New(users *roster.Repository, attRepo *attendance.Repository, att *attendance.Service, sessions auth.Store, cookieSecure bool) *Handlers {
	return &Handlers{
		users:        users,
		attRepo:      attRepo,
		att:          att,
		sessions:     sessions,
		cookieSecure: cookieSecure,
	}
}

// writeErr maps domain errors to statuses; anything unexpected is a 500.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, roster.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, attendance.ErrNotTeacher):
		c.JSON(http.StatusBadRequest, gin.H{"error": "selected user is not a teacher"})
	case errors.Is(err, attendance.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// idParam parses the :id path segment.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

// parseMarks reads the sheet form: repeated student_ids, a status_{id}
// presence flag per student (present iff the flag appears), and an optional
// note_{id} text.
func parseMarks(c *gin.Context) ([]attendance.Mark, bool) {
	ids := c.PostFormArray("student_ids")
	if len(ids) == 0 {
		badRequest(c, "student_ids required")
		return nil, false
	}
	marks := make([]attendance.Mark, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid student id "+raw)
			return nil, false
		}
		_, present := c.GetPostForm("status_" + raw)
		marks = append(marks, attendance.Mark{
			StudentID: id,
			Present:   present,
			Notes:     c.PostForm("note_" + raw),
		})
	}
	return marks, true
}

// blank reports whether a submitted field is empty or whitespace-only.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
