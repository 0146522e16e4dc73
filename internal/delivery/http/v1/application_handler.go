package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	appUC domain.ApplicationUsecase
}

func NewApplicationHandler(students, staff *gin.RouterGroup, appUC domain.ApplicationUsecase) {
	handler := &ApplicationHandler{appUC: appUC}

	students.POST("/jobs/:id/apply", handler.Apply)
	students.POST("/applications/:id/withdraw", handler.Withdraw)

	staff.GET("/employee/jobs/:id/applications", handler.ListForJob)
	staff.GET("/employee/jobs/:id/applications/export", handler.ExportForJob)
	staff.PATCH("/applications/:id/status", handler.UpdateStatus)
}

// Apply godoc
// @Summary      Apply to a job
// @Description  Uses the resume on the student's profile. One application per job.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int                  true  "Job ID"
// @Param        apply  body      domain.ApplyRequest  false "Cover letter"
// @Success      201    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Router       /jobs/{id}/apply [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.ApplyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.BadRequest(err.Error()))
			return
		}
	}

	app, err := h.appUC.Apply(c.Request.Context(), c.GetString(string(domain.KeyUserID)), jobID, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Application submitted successfully", app)
}

// Withdraw godoc
// @Summary      Withdraw my application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Application ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /applications/{id}/withdraw [post]
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	app, err := h.appUC.Withdraw(c.Request.Context(), c.GetString(string(domain.KeyUserID)), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application withdrawn", app)
}

// ListForJob godoc
// @Summary      List applications for a job
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int     true   "Job ID"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Router       /employee/jobs/{id}/applications [get]
func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	apps, err := h.appUC.ListForJob(c.Request.Context(), middleware.CurrentActor(c), jobID, c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Applications retrieved", apps)
}

// ExportForJob godoc
// @Summary      Export applicants as xlsx
// @Tags         applications
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id      path      int     true   "Job ID"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {file}    binary
// @Failure      403     {object}  response.Response
// @Router       /employee/jobs/{id}/applications/export [get]
func (h *ApplicationHandler) ExportForJob(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.appUC.ExportForJob(c.Request.Context(), middleware.CurrentActor(c), jobID, c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Spreadsheet(c, filename, data)
}

// UpdateStatus godoc
// @Summary      Move an application to a new status
// @Description  Allowed targets are shortlisted, selected and rejected. Each change is appended to the history.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int                                    true  "Application ID"
// @Param        status  body      domain.UpdateApplicationStatusRequest  true  "New status"
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	app, err := h.appUC.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application status updated", app)
}
