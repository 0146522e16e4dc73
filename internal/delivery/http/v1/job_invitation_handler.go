package v1

import (
	"net/http"

	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type JobInvitationHandler struct {
	invitationUC domain.JobInvitationUsecase
	config       *config.Config
}

func NewJobInvitationHandler(public, staff *gin.RouterGroup, invitationUC domain.JobInvitationUsecase, cfg *config.Config, loginLimit gin.HandlerFunc) {
	handler := &JobInvitationHandler{invitationUC: invitationUC, config: cfg}

	staff.POST("/jobs/:id/invitations", handler.Invite)

	invitations := public.Group("/job-invitations/:token")
	{
		invitations.GET("", handler.Validate)
		invitations.POST("/sign-in", loginLimit, handler.SignIn)
	}
}

// Invite godoc
// @Summary      Invite students to apply for a job
// @Description  Emails a single-use application link to each address.
// @Tags         job-invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                        true  "Job ID"
// @Param        request  body      domain.InviteToJobRequest  true  "Emails"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /jobs/{id}/invitations [post]
func (h *JobInvitationHandler) Invite(c *gin.Context) {
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.InviteToJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	created, err := h.invitationUC.Invite(c.Request.Context(), middleware.CurrentActor(c), jobID, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Invitations sent", created)
}

// Validate godoc
// @Summary      Check a job invitation link
// @Tags         job-invitations
// @Produce      json
// @Param        token  path      string  true  "Invitation token"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Failure      410    {object}  response.Response
// @Router       /job-invitations/{token} [get]
func (h *JobInvitationHandler) Validate(c *gin.Context) {
	view, err := h.invitationUC.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Invitation is valid", view)
}

// SignIn godoc
// @Summary      Accept a job invitation
// @Description  Signs in (or creates) the student account, applies to the job and consumes the invitation in one transaction.
// @Tags         job-invitations
// @Accept       json
// @Produce      json
// @Param        token    path      string                          true  "Invitation token"
// @Param        request  body      domain.InvitationSignInRequest  true  "Credentials"
// @Success      201      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      410      {object}  response.Response
// @Router       /job-invitations/{token}/sign-in [post]
func (h *JobInvitationHandler) SignIn(c *gin.Context) {
	var req domain.InvitationSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	result, err := h.invitationUC.SignIn(c.Request.Context(), c.Param("token"), req, requestMeta(c))
	if err != nil {
		c.Error(err)
		return
	}
	if result.Session != nil {
		setSessionCookie(c, h.config, result.Session.Token, result.Session.ExpiresAt)
	}
	response.Success(c, http.StatusCreated, "Application submitted successfully", result)
}
