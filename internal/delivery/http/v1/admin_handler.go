package v1

import (
	"net/http"
	"time"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/security"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminUC domain.AdminUsecase
}

// NewAdminHandler expects admin to be restricted to the admin role.
func NewAdminHandler(admin *gin.RouterGroup, adminUC domain.AdminUsecase) {
	handler := &AdminHandler{adminUC: adminUC}

	admin.GET("/stats", handler.GetStats)

	admin.GET("/accounts", handler.ListAccounts)
	admin.PATCH("/accounts/:id/approve", handler.SetApproved)
	admin.PATCH("/accounts/:id/active", handler.SetActive)

	admin.GET("/students/export", handler.ExportStudents)
	admin.GET("/security-events", handler.ListSecurityEvents)
}

type ApproveAccountRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// GetStats godoc
// @Summary      Get admin dashboard statistics
// @Description  Account, job, application, interview and assessment counts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /admin/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminUC.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Dashboard statistics", stats)
}

// ListAccounts godoc
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role       query     string  false  "student, employee or admin"
// @Param        status     query     string  false  "pending, active or inactive"
// @Param        q          query     string  false  "Search name or email"
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Items per page"
// @Success      200        {object}  response.Response
// @Router       /admin/accounts [get]
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	filter := domain.AccountFilter{
		Role:     c.Query("role"),
		Status:   c.Query("status"),
		Query:    c.Query("q"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	result, err := h.adminUC.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Accounts retrieved", result)
}

// SetApproved godoc
// @Summary      Approve or revoke an employee account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Account ID"
// @Param        request  body      ApproveAccountRequest  true  "Approval"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/accounts/{id}/approve [patch]
func (h *AdminHandler) SetApproved(c *gin.Context) {
	var req ApproveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("approved is required"))
		return
	}
	acc, err := h.adminUC.SetApproved(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), *req.Approved)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Account updated", acc)
}

// SetActive godoc
// @Summary      Enable or disable an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true  "Account ID"
// @Param        request  body      SetActiveRequest  true  "Active flag"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/accounts/{id}/active [patch]
func (h *AdminHandler) SetActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("active is required"))
		return
	}
	acc, err := h.adminUC.SetActive(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), *req.Active)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Account updated", acc)
}

// ExportStudents godoc
// @Summary      Export all students as xlsx
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200  {file}  binary
// @Router       /admin/students/export [get]
func (h *AdminHandler) ExportStudents(c *gin.Context) {
	data, filename, err := h.adminUC.ExportStudents(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Spreadsheet(c, filename, data)
}

// ListSecurityEvents godoc
// @Summary      List persisted security events
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        event_type  query     string  false  "Event type"
// @Param        since       query     string  false  "RFC3339 timestamp"
// @Param        limit       query     int     false  "Max rows"
// @Success      200         {object}  response.Response
// @Router       /admin/security-events [get]
func (h *AdminHandler) ListSecurityEvents(c *gin.Context) {
	filter := security.EventFilter{
		EventType: c.Query("event_type"),
		Limit:     queryInt(c, "limit", 0),
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.Error(apperror.BadRequest("since must be an RFC3339 timestamp"))
			return
		}
		filter.Since = since
	}
	events, err := h.adminUC.ListSecurityEvents(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Security events retrieved", events)
}
