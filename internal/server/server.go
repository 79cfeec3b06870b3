// Package server exposes the HTTP surface: the device-facing activation
// and telemetry endpoints, operator read APIs, and the HTML panel.
//
// Handlers stay thin. They bind and validate the wire shape, call one
// service method, and translate the result; all domain decisions live in
// the services. Error responses use the {"detail": message} shape the
// device firmware already parses.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marthink/redmaker/internal/activation"
	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/config"
	"github.com/marthink/redmaker/internal/fleet"
	"github.com/marthink/redmaker/internal/panel"
	"github.com/marthink/redmaker/internal/store"
	"github.com/marthink/redmaker/internal/telemetry"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Server holds the handler dependencies and assembles the router.
type Server struct {
	cfg        config.Config
	log        *slog.Logger
	store      *store.Store
	activation *activation.Service
	telemetry  *telemetry.Service
	fleet      *fleet.Service
	panel      *panel.Renderer
	clock      clock.Clock
}

// New wires a Server from its collaborators.
func New(cfg config.Config, log *slog.Logger, st *store.Store, act *activation.Service, tel *telemetry.Service, flt *fleet.Service, clk clock.Clock) *Server {
	return &Server{
		cfg:        cfg,
		log:        log,
		store:      st,
		activation: act,
		telemetry:  tel,
		fleet:      flt,
		panel:      panel.NewRenderer(),
		clock:      clk,
	}
}

// Router assembles the gin engine: middleware, then routes.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(s.requestID(), s.requestLogger(), s.recovery())
	engine.Use(cors.New(s.corsConfig()))

	engine.GET("/", s.Root)
	engine.GET("/health", s.Health)
	engine.GET("/panel", s.Panel)

	api := engine.Group("/api")
	{
		api.POST("/activate", s.Activate)
		api.POST("/updates", s.ReceiveUpdate)
		api.GET("/devices", s.ListDevices)
		api.GET("/sensor-data/:mac_address", s.SensorData)
		api.POST("/activation-codes", s.CreateCode)
		api.GET("/activation-codes", s.ListCodes)
	}

	return engine
}

func (s *Server) corsConfig() cors.Config {
	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}
	// A single "*" means any origin; the cors middleware wants that
	// expressed through AllowAllOrigins rather than as a pattern.
	if len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}
