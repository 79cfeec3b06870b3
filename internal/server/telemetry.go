package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marthink/redmaker/internal/store"
)

// updateRequest uses pointer fields so a reading of exactly zero passes
// the required check. 0.0 is a legitimate winter temperature.
type updateRequest struct {
	Temperatura *float64 `json:"temperatura" binding:"required"`
	Humedad     *float64 `json:"humedad" binding:"required"`
}

// ReceiveUpdate ingests one sensor reading, authenticated by the
// X-API-Key header.
func (s *Server) ReceiveUpdate(c *gin.Context) {
	apiKey := c.GetHeader("X-API-Key")

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Cuerpo inválido: se requieren temperatura y humedad"})
		return
	}

	reading, dev, err := s.telemetry.Ingest(c.Request.Context(), apiKey, *req.Temperatura, *req.Humedad)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Datos recibidos correctamente",
		"sede":        dev.SedeNombre,
		"mac_address": dev.MAC,
		"timestamp":   reading.Timestamp,
	})
}

type deviceResponse struct {
	MACAddress  string     `json:"mac_address"`
	SedeID      string     `json:"sede_id"`
	SedeNombre  string     `json:"sede_nombre"`
	ActivatedAt time.Time  `json:"activated_at"`
	LastSeen    *time.Time `json:"last_seen"`
	Status      string     `json:"status"`
}

// ListDevices reports every registered device with its derived liveness.
func (s *Server) ListDevices(c *gin.Context) {
	views, err := s.fleet.Devices(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	devices := make([]deviceResponse, len(views))
	for i, v := range views {
		devices[i] = deviceResponse{
			MACAddress:  v.MAC,
			SedeID:      v.SedeID,
			SedeNombre:  v.SedeNombre,
			ActivatedAt: v.ActivatedAt,
			LastSeen:    v.LastSeen,
			Status:      string(v.State),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   len(devices),
		"devices": devices,
	})
}

type readingResponse struct {
	Temperatura float64   `json:"temperatura"`
	Humedad     float64   `json:"humedad"`
	Timestamp   time.Time `json:"timestamp"`
}

// SensorData returns recent readings for one device, newest first.
// Unknown devices yield an empty list, not an error.
func (s *Server) SensorData(c *gin.Context) {
	mac := c.Param("mac_address")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "limit debe ser un número entero"})
		return
	}

	readings, err := s.telemetry.Readings(c.Request.Context(), mac, limit)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	data := make([]readingResponse, len(readings))
	for i, r := range readings {
		data[i] = readingResponse{
			Temperatura: r.Temperatura,
			Humedad:     r.Humedad,
			Timestamp:   r.Timestamp,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"mac_address":   store.NormalizeMAC(mac),
		"total_records": len(data),
		"data":          data,
	})
}
