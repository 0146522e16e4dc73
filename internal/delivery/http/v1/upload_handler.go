package v1

import (
	"net/http"

	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadUC domain.UploadUsecase
}

func NewUploadHandler(protected *gin.RouterGroup, uploadUC domain.UploadUsecase, uploadLimit gin.HandlerFunc) {
	handler := &UploadHandler{uploadUC: uploadUC}
	protected.POST("/upload", uploadLimit, handler.Upload)
}

// Upload godoc
// @Summary      Upload a file
// @Description  Images are compressed to JPEG; documents are stored as sent.
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        folder  query     string  true  "profile-photos, logos, documents or resumes"
// @Param        file    formData  file    true  "File"
// @Success      201     {object}  response.Response
// @Failure      400     {object}  response.Response
// @Failure      429     {object}  response.Response
// @Failure      503     {object}  response.Response
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := readUpload(c, "file")
	if err != nil {
		c.Error(err)
		return
	}
	result, err := h.uploadUC.Upload(c.Request.Context(), middleware.CurrentActor(c), c.Query("folder"), file)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "File uploaded", result)
}
