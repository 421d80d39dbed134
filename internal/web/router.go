// Package web is the authenticated dashboard boundary.
package web

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"admintime/internal/dashboard"
)

const sessionAuthKey = "authenticated"

// Server holds the dependencies of the dashboard handlers.
type Server struct {
	service  *dashboard.Service
	username string
	password string
}

// NewServer creates a dashboard server over the query service.
func NewServer(service *dashboard.Service, username, password string) *Server {
	return &Server{service: service, username: username, password: password}
}

// Router builds the gin engine: session middleware, login/logout, the
// HTML dashboard and the JSON API.
func (s *Server) Router(sessionSecret string) *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(templates)

	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("admintime", store))

	// Slow down credential stuffing: 1 attempt/s per IP, small burst.
	loginLimiter := rateLimiter(rate.Limit(1), 5)

	r.GET("/login", s.loginPage)
	r.POST("/login", loginLimiter, s.login)
	r.GET("/logout", s.logout)

	r.GET("/", requireAuth, s.dashboardPage)

	api := r.Group("/api")
	api.Use(requireAuth)
	{
		api.GET("/admins", s.listAdmins)
		api.GET("/admins/:id/range", s.adminRange)
	}

	return r
}

// requireAuth gates a route behind the session cookie. API requests get a
// JSON 401; browser requests are redirected to the login page.
func requireAuth(c *gin.Context) {
	session := sessions.Default(c)
	if auth, ok := session.Get(sessionAuthKey).(bool); ok && auth {
		c.Next()
		return
	}

	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}
