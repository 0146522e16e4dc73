package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type InterviewHandler struct {
	interviewUC domain.InterviewUsecase
}

func NewInterviewHandler(staff *gin.RouterGroup, interviewUC domain.InterviewUsecase) {
	handler := &InterviewHandler{interviewUC: interviewUC}

	staff.POST("/applications/:id/interviews", handler.Schedule)
	staff.PATCH("/interviews/:id", handler.Update)
	staff.GET("/employee/jobs/:id/interviews", handler.ListForJob)
}

// Schedule godoc
// @Summary      Schedule an interview
// @Description  The application moves to interview_scheduled and the student is emailed.
// @Tags         interviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int                              true  "Application ID"
// @Param        interview  body      domain.ScheduleInterviewRequest  true  "Schedule"
// @Success      201        {object}  response.Response
// @Failure      400        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Failure      409        {object}  response.Response
// @Router       /applications/{id}/interviews [post]
func (h *InterviewHandler) Schedule(c *gin.Context) {
	appID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.ScheduleInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	iv, err := h.interviewUC.Schedule(c.Request.Context(), middleware.CurrentActor(c), appID, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Interview scheduled", iv)
}

// Update godoc
// @Summary      Reschedule, cancel or complete an interview
// @Tags         interviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int                            true  "Interview ID"
// @Param        interview  body      domain.UpdateInterviewRequest  true  "Changes"
// @Success      200        {object}  response.Response
// @Failure      400        {object}  response.Response
// @Failure      403        {object}  response.Response
// @Router       /interviews/{id} [patch]
func (h *InterviewHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.UpdateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	iv, err := h.interviewUC.Update(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Interview updated", iv)
}

// ListForJob godoc
// @Summary      List interviews for a job
// @Tags         interviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /employee/jobs/{id}/interviews [get]
func (h *InterviewHandler) ListForJob(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	interviews, err := h.interviewUC.ListForJob(c.Request.Context(), middleware.CurrentActor(c), jobID)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Interviews retrieved", interviews)
}
