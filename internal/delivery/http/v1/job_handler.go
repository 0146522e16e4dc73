package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobUC domain.JobUsecase
}

// NewJobHandler registers the public job board and the management routes.
// staff must already be restricted to employees and admins.
func NewJobHandler(public, staff *gin.RouterGroup, jobUC domain.JobUsecase) {
	handler := &JobHandler{jobUC: jobUC}

	publicJobs := public.Group("/jobs")
	{
		publicJobs.GET("", handler.ListOpen)
		publicJobs.GET("/:id", handler.GetDetails)
	}

	staffJobs := staff.Group("/jobs")
	{
		staffJobs.POST("", handler.Create)
		staffJobs.PUT("/:id", handler.Update)
		staffJobs.PATCH("/:id/status", handler.UpdateStatus)
		staffJobs.DELETE("/:id", handler.Delete)
	}

	staff.GET("/employee/jobs", handler.ListManaged)
}

type UpdateJobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOpen godoc
// @Summary      List open jobs
// @Tags         jobs
// @Produce      json
// @Param        q          query     string  false  "Search title, organization or location"
// @Param        page       query     int     false  "Page number"
// @Param        page_size  query     int     false  "Items per page"
// @Success      200        {object}  response.Response
// @Router       /jobs [get]
func (h *JobHandler) ListOpen(c *gin.Context) {
	result, err := h.jobUC.ListOpen(c.Request.Context(), c.Query("q"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Jobs retrieved", result)
}

// GetDetails godoc
// @Summary      Get job details
// @Tags         jobs
// @Produce      json
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetDetails(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	job, err := h.jobUC.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job retrieved", job)
}

// Create godoc
// @Summary      Create a job posting
// @Description  Employees post for their own organization; admins may name one.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        job  body      domain.JobInput  true  "Job details"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var input domain.JobInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	job, err := h.jobUC.Create(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Job created successfully", job)
}

// Update godoc
// @Summary      Update a job posting
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int              true  "Job ID"
// @Param        job  body      domain.JobInput  true  "Job details"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [put]
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input domain.JobInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	job, err := h.jobUC.Update(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job updated successfully", job)
}

// UpdateStatus godoc
// @Summary      Open or close a job posting
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      int                     true  "Job ID"
// @Param        status  body      UpdateJobStatusRequest  true  "open or closed"
// @Success      200     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Router       /jobs/{id}/status [patch]
func (h *JobHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Status is required"))
		return
	}
	job, err := h.jobUC.UpdateStatus(c.Request.Context(), middleware.CurrentActor(c), id, req.Status)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job status updated", job)
}

// Delete godoc
// @Summary      Delete a job posting
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.jobUC.Delete(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job deleted successfully", nil)
}

// ListManaged godoc
// @Summary      List jobs I manage
// @Description  Employees see their organization's jobs; admins see all.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page number"
// @Param        page_size  query     int  false  "Items per page"
// @Success      200        {object}  response.Response
// @Router       /employee/jobs [get]
func (h *JobHandler) ListManaged(c *gin.Context) {
	result, err := h.jobUC.ListManaged(c.Request.Context(), middleware.CurrentActor(c), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Jobs retrieved", result)
}
