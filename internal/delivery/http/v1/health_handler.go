package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC domain.HealthUsecase
}

func NewHealthHandler(public *gin.RouterGroup, healthUC domain.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	public.GET("/health", handler.Check)
}

// Check godoc
// @Summary      Health check
// @Description  Database, Redis and storage status. 503 when the database is down.
// @Tags         health
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      503  {object}  response.Response
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	status := h.healthUC.Check(c.Request.Context())
	if status.Services["database"] == "unavailable" {
		response.Error(c, http.StatusServiceUnavailable, "Service unavailable", status)
		return
	}
	response.Success(c, http.StatusOK, "System operational", status)
}
