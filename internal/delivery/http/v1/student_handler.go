package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	studentUC domain.StudentUsecase
}

func NewStudentHandler(students *gin.RouterGroup, studentUC domain.StudentUsecase, uploadLimit gin.HandlerFunc) {
	handler := &StudentHandler{studentUC: studentUC}

	me := students.Group("/students/me")
	{
		me.GET("/profile", handler.GetProfile)
		me.PUT("/profile", handler.UpdateProfile)
		me.POST("/resume", uploadLimit, handler.UploadResume)
		me.GET("/applications", handler.ListApplications)
		me.GET("/interviews", handler.ListInterviews)
	}
}

func studentID(c *gin.Context) string {
	return c.GetString(string(domain.KeyUserID))
}

// GetProfile godoc
// @Summary      Get my student profile
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /students/me/profile [get]
func (h *StudentHandler) GetProfile(c *gin.Context) {
	view, err := h.studentUC.GetProfile(c.Request.Context(), studentID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved", view)
}

// UpdateProfile godoc
// @Summary      Update my student profile
// @Tags         students
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile  body      domain.UpdateStudentProfileRequest  true  "Profile fields"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /students/me/profile [put]
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	var req domain.UpdateStudentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	view, err := h.studentUC.UpdateProfile(c.Request.Context(), studentID(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile updated", view)
}

// UploadResume godoc
// @Summary      Upload my resume
// @Description  Accepts pdf, doc or docx. Replaces any previous resume.
// @Tags         students
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Resume"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      429   {object}  response.Response
// @Router       /students/me/resume [post]
func (h *StudentHandler) UploadResume(c *gin.Context) {
	file, err := readUpload(c, "file")
	if err != nil {
		c.Error(err)
		return
	}
	profile, err := h.studentUC.UploadResume(c.Request.Context(), studentID(c), file)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume uploaded", profile)
}

// ListApplications godoc
// @Summary      List my applications
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /students/me/applications [get]
func (h *StudentHandler) ListApplications(c *gin.Context) {
	apps, err := h.studentUC.ListApplications(c.Request.Context(), studentID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Applications retrieved", apps)
}

// ListInterviews godoc
// @Summary      List my interviews
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /students/me/interviews [get]
func (h *StudentHandler) ListInterviews(c *gin.Context) {
	interviews, err := h.studentUC.ListInterviews(c.Request.Context(), studentID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Interviews retrieved", interviews)
}
