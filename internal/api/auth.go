package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// dashboardPath maps a role to its landing page.
func dashboardPath(role string) string {
	switch role {
	case roster.RoleAdmin:
		return "/admin/dashboard"
	case roster.RoleTeacher:
		return "/teacher/dashboard"
	default:
		return "/student/dashboard"
	}
}

// Login authenticates the (username, role) pair against the stored bcrypt
// hash. Both an unknown pair and a wrong password answer the same generic
// message, so the response does not reveal which factor failed.
func (h *Handlers) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	role := c.PostForm("role")
	if blank(username) || password == "" || !roster.ValidRole(role) {
		badRequest(c, "username, password and role are required")
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByUsernameRole(ctx, username, role)
	if err != nil && !errors.Is(err, roster.ErrNotFound) {
		// A store failure is not a credential verdict.
		writeErr(c, err)
		return
	}
	if err != nil || !auth.CheckPassword(user.Password, password) {
		loginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	// Any prior session the client presented is discarded first.
	if old := auth.TokenFromRequest(c); old != "" {
		_ = h.sessions.Delete(ctx, old)
	}

	token, err := h.sessions.Create(ctx, auth.Session{
		UserID:   user.ID,
		Username: user.Username,
		Name:     user.Name,
		Role:     user.Role,
	})
	if err != nil {
		writeErr(c, err)
		return
	}

	loginAttempts.WithLabelValues("success").Inc()
	logrus.WithFields(logrus.Fields{"user": user.Username, "role": user.Role}).Info("login")

	c.SetCookie(auth.CookieName, token, 0, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"name":     user.Name,
		"role":     user.Role,
		"redirect": dashboardPath(user.Role),
	})
}

// Logout invalidates the session server-side and clears the cookie.
func (h *Handlers) Logout(c *gin.Context) {
	if token := auth.TokenFromRequest(c); token != "" {
		_ = h.sessions.Delete(c.Request.Context(), token)
	}
	c.SetCookie(auth.CookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
