package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Panel renders the monitoring dashboard from a fleet snapshot.
func (s *Server) Panel(c *gin.Context) {
	snap, err := s.fleet.Overview(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	html, err := s.panel.Render(snap)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
