package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Root reports service identity and the endpoint catalog.
func (s *Server) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "Red Maker IoT Backend",
		"version":   Version,
		"status":    "online",
		"timestamp": s.clock.Now(),
		"endpoints": gin.H{
			"activate":    "POST /api/activate",
			"updates":     "POST /api/updates",
			"devices":     "GET /api/devices",
			"sensor_data": "GET /api/sensor-data/{mac_address}",
			"create_code": "POST /api/activation-codes",
			"list_codes":  "GET /api/activation-codes",
			"panel":       "GET /panel",
			"health":      "GET /health",
		},
	})
}

// Health probes the database and reports fleet size. Monitoring treats
// any non-200 as down.
func (s *Server) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.store.Ping(ctx); err != nil {
		s.unhealthy(c, err)
		return
	}
	devices, err := s.store.CountDevices(ctx)
	if err != nil {
		s.unhealthy(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"devices":   devices,
		"timestamp": s.clock.Now(),
	})
}

func (s *Server) unhealthy(c *gin.Context, err error) {
	s.log.ErrorContext(c.Request.Context(), "health check failed", "error", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":    "unhealthy",
		"error":     "database unreachable",
		"timestamp": s.clock.Now(),
	})
}
