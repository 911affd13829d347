package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler reports process liveness only; it never touches storage.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Check
// @Summary Liveness probe
// @Description Always answers 200 with an empty body while the process is running.
// @Tags health
// @Success 200
// @Router /health_check [get]
func (h *Handler) Check(c *gin.Context) {
	c.Status(http.StatusOK)
}
