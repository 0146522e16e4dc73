package v1

import (
	"net/http"
	"strconv"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	assessmentUC domain.AssessmentUsecase
}

// NewAssessmentHandler registers test management for staff and the
// token-addressed candidate endpoints, which need no session.
func NewAssessmentHandler(public, staff *gin.RouterGroup, assessmentUC domain.AssessmentUsecase, uploadLimit gin.HandlerFunc) {
	handler := &AssessmentHandler{assessmentUC: assessmentUC}

	tests := staff.Group("/assessments/tests")
	{
		tests.POST("", handler.CreateTest)
		tests.GET("", handler.ListTests)
		tests.GET("/:id", handler.GetTest)
		tests.PUT("/:id", handler.UpdateTest)
		tests.DELETE("/:id", handler.DeleteTest)

		tests.POST("/:id/invitations", handler.InviteCandidates)
		tests.POST("/:id/invitations/import", handler.ImportInvitations)
		tests.GET("/:id/invitations", handler.ListInvitations)

		tests.GET("/:id/results", handler.ListResults)
		tests.GET("/:id/results/export", handler.ExportResults)
		tests.POST("/:id/declare-results", handler.DeclareResults)
		tests.GET("/:id/verifications", handler.ListVerifications)
	}

	candidate := public.Group("/assessments/invitations/:token")
	{
		candidate.GET("", handler.ValidateInvitation)
		candidate.POST("/verification", uploadLimit, handler.UploadVerification)
		candidate.POST("/start", handler.StartAttempt)
		candidate.POST("/tab-switch", handler.RecordTabSwitch)
		candidate.POST("/submit", handler.Submit)
	}
}

// resultFilter reads the passed and min_score query filters.
func resultFilter(c *gin.Context) (domain.ResultFilter, error) {
	var f domain.ResultFilter
	if v := c.Query("passed"); v != "" {
		passed, err := strconv.ParseBool(v)
		if err != nil {
			return f, apperror.BadRequest("passed must be true or false")
		}
		f.Passed = &passed
	}
	if v := c.Query("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apperror.BadRequest("min_score must be a number")
		}
		f.MinScore = &score
	}
	return f, nil
}

// CreateTest godoc
// @Summary      Create an assessment test
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        test  body      domain.AssessmentTestInput  true  "Test definition"
// @Success      201   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Router       /assessments/tests [post]
func (h *AssessmentHandler) CreateTest(c *gin.Context) {
	var input domain.AssessmentTestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	test, err := h.assessmentUC.CreateTest(c.Request.Context(), middleware.CurrentActor(c), input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Assessment created", test)
}

// ListTests godoc
// @Summary      List assessment tests
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /assessments/tests [get]
func (h *AssessmentHandler) ListTests(c *gin.Context) {
	tests, err := h.assessmentUC.ListTests(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessments retrieved", tests)
}

// GetTest godoc
// @Summary      Get an assessment test with answers
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Test ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /assessments/tests/{id} [get]
func (h *AssessmentHandler) GetTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	test, err := h.assessmentUC.GetTest(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessment retrieved", test)
}

// UpdateTest godoc
// @Summary      Update an assessment test
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                         true  "Test ID"
// @Param        test  body      domain.AssessmentTestInput  true  "Test definition"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      403   {object}  response.Response
// @Router       /assessments/tests/{id} [put]
func (h *AssessmentHandler) UpdateTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input domain.AssessmentTestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	test, err := h.assessmentUC.UpdateTest(c.Request.Context(), middleware.CurrentActor(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessment updated", test)
}

// DeleteTest godoc
// @Summary      Delete an assessment test
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Test ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /assessments/tests/{id} [delete]
func (h *AssessmentHandler) DeleteTest(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.assessmentUC.DeleteTest(c.Request.Context(), middleware.CurrentActor(c), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessment deleted", nil)
}

// InviteCandidates godoc
// @Summary      Invite candidates to an assessment
// @Description  Existing pending invitations for the same email are skipped.
// @Tags         assessments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                             true  "Test ID"
// @Param        request  body      domain.InviteCandidatesRequest  true  "Candidates"
// @Success      201      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /assessments/tests/{id}/invitations [post]
func (h *AssessmentHandler) InviteCandidates(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req domain.InviteCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	summary, err := h.assessmentUC.InviteCandidates(c.Request.Context(), middleware.CurrentActor(c), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Invitations processed", summary)
}

// ImportInvitations godoc
// @Summary      Import candidates from a spreadsheet
// @Description  First sheet with Name and Email columns.
// @Tags         assessments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id                path      int   true   "Test ID"
// @Param        file              formData  file  true   "xlsx file"
// @Param        expires_in_hours  formData  int   false  "Invitation lifetime"
// @Success      201               {object}  response.Response
// @Failure      400               {object}  response.Response
// @Router       /assessments/tests/{id}/invitations/import [post]
func (h *AssessmentHandler) ImportInvitations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, err := readUpload(c, "file")
	if err != nil {
		c.Error(err)
		return
	}
	hours, _ := strconv.Atoi(c.PostForm("expires_in_hours"))

	summary, err := h.assessmentUC.ImportInvitations(c.Request.Context(), middleware.CurrentActor(c), id, file, hours)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Invitations imported", summary)
}

// ListInvitations godoc
// @Summary      List invitations for a test
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Test ID"
// @Success      200  {object}  response.Response
// @Router       /assessments/tests/{id}/invitations [get]
func (h *AssessmentHandler) ListInvitations(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	invitations, err := h.assessmentUC.ListInvitations(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Invitations retrieved", invitations)
}

// ListResults godoc
// @Summary      List results for a test
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int     true   "Test ID"
// @Param        passed     query     bool    false  "Only passed or failed"
// @Param        min_score  query     number  false  "Minimum percentage"
// @Success      200        {object}  response.Response
// @Router       /assessments/tests/{id}/results [get]
func (h *AssessmentHandler) ListResults(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	filter, err := resultFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	results, err := h.assessmentUC.ListResults(c.Request.Context(), middleware.CurrentActor(c), id, filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Results retrieved", results)
}

// ExportResults godoc
// @Summary      Export results as xlsx
// @Tags         assessments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        id         path      int     true   "Test ID"
// @Param        passed     query     bool    false  "Only passed or failed"
// @Param        min_score  query     number  false  "Minimum percentage"
// @Success      200        {file}    binary
// @Router       /assessments/tests/{id}/results/export [get]
func (h *AssessmentHandler) ExportResults(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	filter, err := resultFilter(c)
	if err != nil {
		c.Error(err)
		return
	}
	data, filename, err := h.assessmentUC.ExportResults(c.Request.Context(), middleware.CurrentActor(c), id, filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Spreadsheet(c, filename, data)
}

// DeclareResults godoc
// @Summary      Declare results
// @Description  Marks undeclared results as declared and emails each candidate once.
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Test ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /assessments/tests/{id}/declare-results [post]
func (h *AssessmentHandler) DeclareResults(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	outcome, err := h.assessmentUC.DeclareResults(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, outcome.Message, outcome)
}

// ListVerifications godoc
// @Summary      List identity verification photos for a test
// @Tags         assessments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Test ID"
// @Success      200  {object}  response.Response
// @Router       /assessments/tests/{id}/verifications [get]
func (h *AssessmentHandler) ListVerifications(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	verifications, err := h.assessmentUC.ListVerifications(c.Request.Context(), middleware.CurrentActor(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Verifications retrieved", verifications)
}

// ValidateInvitation godoc
// @Summary      Check an assessment invitation
// @Description  Reports Pending, Started, Completed or Expired with the test summary.
// @Tags         assessment-candidate
// @Produce      json
// @Param        token  path      string  true  "Invitation token"
// @Success      200    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /assessments/invitations/{token} [get]
func (h *AssessmentHandler) ValidateInvitation(c *gin.Context) {
	view, err := h.assessmentUC.ValidateInvitation(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Invitation retrieved", view)
}

// UploadVerification godoc
// @Summary      Upload identity verification photos
// @Tags         assessment-candidate
// @Accept       multipart/form-data
// @Produce      json
// @Param        token          path      string  true  "Invitation token"
// @Param        face_image     formData  file    true  "Face photo"
// @Param        id_card_image  formData  file    true  "ID card photo"
// @Success      201            {object}  response.Response
// @Failure      400            {object}  response.Response
// @Failure      410            {object}  response.Response
// @Router       /assessments/invitations/{token}/verification [post]
func (h *AssessmentHandler) UploadVerification(c *gin.Context) {
	face, err := readUpload(c, "face_image")
	if err != nil {
		c.Error(err)
		return
	}
	idCard, err := readUpload(c, "id_card_image")
	if err != nil {
		c.Error(err)
		return
	}
	v, err := h.assessmentUC.UploadVerification(c.Request.Context(), c.Param("token"), face, idCard)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Verification uploaded", v)
}

// StartAttempt godoc
// @Summary      Start or resume the attempt
// @Description  Returns questions without answers and the remaining seconds.
// @Tags         assessment-candidate
// @Produce      json
// @Param        token  path      string  true  "Invitation token"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      409    {object}  response.Response
// @Failure      410    {object}  response.Response
// @Router       /assessments/invitations/{token}/start [post]
func (h *AssessmentHandler) StartAttempt(c *gin.Context) {
	attempt, err := h.assessmentUC.StartAttempt(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessment started", attempt)
}

// RecordTabSwitch godoc
// @Summary      Record a tab switch
// @Tags         assessment-candidate
// @Produce      json
// @Param        token  path      string  true  "Invitation token"
// @Success      200    {object}  response.Response
// @Router       /assessments/invitations/{token}/tab-switch [post]
func (h *AssessmentHandler) RecordTabSwitch(c *gin.Context) {
	result, err := h.assessmentUC.RecordTabSwitch(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Tab switch recorded", result)
}

// Submit godoc
// @Summary      Submit answers
// @Tags         assessment-candidate
// @Accept       json
// @Produce      json
// @Param        token    path      string                       true  "Invitation token"
// @Param        answers  body      domain.SubmitAnswersRequest  true  "Answers by question ID"
// @Success      200      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      410      {object}  response.Response
// @Router       /assessments/invitations/{token}/submit [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req domain.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	receipt, err := h.assessmentUC.Submit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Assessment submitted", receipt)
}
