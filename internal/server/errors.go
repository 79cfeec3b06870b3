package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marthink/redmaker/internal/activation"
	"github.com/marthink/redmaker/internal/telemetry"
)

// abortWithError maps a service error to a status code and a Spanish
// detail message. Anything unrecognized is an internal error: logged
// with full detail, answered with none.
//
// Missing and invalid credentials share one message so the response
// does not reveal whether a presented key exists.
func (s *Server) abortWithError(c *gin.Context, err error) {
	var used *activation.AlreadyUsedError

	switch {
	case activation.IsValidation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case activation.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Código de activación no encontrado"})
	case errors.As(err, &used):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": fmt.Sprintf("Código ya utilizado por %s", used.UsedBy)})
	case activation.IsConflict(err):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"detail": "Código ya existe"})
	case telemetry.IsAuthentication(err):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "API Key inválida o faltante"})
	default:
		s.log.ErrorContext(c.Request.Context(), "internal error",
			"error", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(contextRequestIDKey),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Error interno"})
	}
}
