package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"admintime/internal/dashboard"
	"admintime/internal/ledger"
)

func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Error": c.Query("error") != "",
	})
}

func (s *Server) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		c.Redirect(http.StatusFound, "/login?error=true")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionAuthKey, true)
	if err := session.Save(); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/login")
}

func (s *Server) dashboardPage(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Admins": s.service.Overview(),
	})
}

// listAdmins handles GET /api/admins.
func (s *Server) listAdmins(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Overview())
}

// adminRange handles GET /api/admins/:id/range?start=&end=. Bounds accept
// RFC3339 timestamps or plain dates; a date-only end is pushed to the end
// of that day so the picker's inclusive range behaves as expected.
func (s *Server) adminRange(c *gin.Context) {
	start, err := parseBound(c.Query("start"), false)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid start: use RFC3339 or YYYY-MM-DD"})
		return
	}
	end, err := parseBound(c.Query("end"), true)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid end: use RFC3339 or YYYY-MM-DD"})
		return
	}

	result, err := s.service.Range(c.Param("id"), start, end)
	switch {
	case errors.Is(err, ledger.ErrInvalidRange):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range: start is after end"})
	case errors.Is(err, dashboard.ErrUnknownAdmin):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown admin"})
	case err != nil:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
	default:
		c.JSON(http.StatusOK, result)
	}
}

const dateOnly = "2006-01-02"

func parseBound(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
