package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type activateRequest struct {
	Code       string `json:"code" binding:"required"`
	MACAddress string `json:"mac_address" binding:"required"`
}

// Activate redeems an activation code for a device credential.
// Re-activation by an already registered device returns its stored
// credential instead of minting a new one.
func (s *Server) Activate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Cuerpo inválido: se requieren code y mac_address"})
		return
	}

	dev, reused, err := s.activation.Activate(c.Request.Context(), req.Code, req.MACAddress)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	message := "Dispositivo activado exitosamente"
	if reused {
		message = "Dispositivo ya estaba registrado"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"sede_id":     dev.SedeID,
		"sede_nombre": dev.SedeNombre,
		"api_key":     dev.APIKey,
		"message":     message,
	})
}

type createCodeRequest struct {
	Code       string `json:"code" binding:"required"`
	SedeID     string `json:"sede_id" binding:"required"`
	SedeNombre string `json:"sede_nombre" binding:"required"`
}

// CreateCode provisions a new activation code.
func (s *Server) CreateCode(c *gin.Context) {
	var req createCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Cuerpo inválido: se requieren code, sede_id y sede_nombre"})
		return
	}

	code, err := s.activation.CreateCode(c.Request.Context(), req.Code, req.SedeID, req.SedeNombre)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"code":        code.Code,
		"sede_nombre": code.SedeNombre,
		"message":     "Código de activación creado exitosamente",
	})
}

type codeResponse struct {
	Code       string     `json:"code"`
	SedeID     string     `json:"sede_id"`
	SedeNombre string     `json:"sede_nombre"`
	IsUsed     bool       `json:"is_used"`
	UsedByMAC  *string    `json:"used_by_mac"`
	UsedAt     *time.Time `json:"used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ListCodes reports the activation code pool with usage counts.
func (s *Server) ListCodes(c *gin.Context) {
	codes, counts, err := s.fleet.Codes(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	out := make([]codeResponse, len(codes))
	for i, ac := range codes {
		out[i] = codeResponse{
			Code:       ac.Code,
			SedeID:     ac.SedeID,
			SedeNombre: ac.SedeNombre,
			IsUsed:     ac.Used,
			UsedByMAC:  ac.UsedByMAC,
			UsedAt:     ac.UsedAt,
			CreatedAt:  ac.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     counts.Total,
		"available": counts.Available,
		"used":      counts.Used,
		"codes":     out,
	})
}
