package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestUploadUsecase_Upload(t *testing.T) {
	ctx := context.Background()
	actor := domain.Actor{UserID: "stu-1", Role: domain.RoleStudent}

	t.Run("Image is recompressed to JPEG", func(t *testing.T) {
		store := new(MockStorage)
		store.On("Upload", ctx, mock.Anything, "profile-photos/stu-1", "me.jpg", "image/jpeg").
			Return(&storage.UploadResult{URL: "https://cdn/me.jpg", PublicID: "profile-photos/stu-1/me.jpg"}, nil)

		res, err := usecase.NewUploadUsecase(store).Upload(ctx, actor, "profile-photos", domain.UploadedFile{Filename: "me.png", Data: pngBytes(t)})

		require.NoError(t, err)
		assert.Equal(t, "https://cdn/me.jpg", res.URL)
		store.AssertExpectations(t)
	})

	t.Run("Document kept as is", func(t *testing.T) {
		store := new(MockStorage)
		store.On("Upload", ctx, pdfBytes, "documents/stu-1", "marksheet.pdf", "application/pdf").
			Return(&storage.UploadResult{URL: "https://cdn/marksheet.pdf"}, nil)

		_, err := usecase.NewUploadUsecase(store).Upload(ctx, actor, "documents", domain.UploadedFile{Filename: "marksheet.pdf", Data: pdfBytes})
		require.NoError(t, err)
	})

	t.Run("Unknown folder", func(t *testing.T) {
		_, err := usecase.NewUploadUsecase(new(MockStorage)).Upload(ctx, actor, "../etc", domain.UploadedFile{Filename: "a.pdf", Data: pdfBytes})
		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Disguised file rejected", func(t *testing.T) {
		store := new(MockStorage)
		_, err := usecase.NewUploadUsecase(store).Upload(ctx, actor, "resumes", domain.UploadedFile{Filename: "cv.pdf", Data: pngBytes(t)})

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
		store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Storage outage", func(t *testing.T) {
		store := new(MockStorage)
		store.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("s3 down"))

		_, err := usecase.NewUploadUsecase(store).Upload(ctx, actor, "resumes", domain.UploadedFile{Filename: "cv.pdf", Data: pdfBytes})
		assert.Equal(t, http.StatusServiceUnavailable, errorCode(t, err))
	})
}

func TestHealthUsecase_Check(t *testing.T) {
	uc := usecase.NewHealthUsecase(map[string]usecase.Pinger{
		"database": func(context.Context) error { return nil },
		"redis":    nil,
		"storage":  func(context.Context) error { return errors.New("timeout") },
	})

	status := uc.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "ok", status.Services["database"])
	assert.Equal(t, "not_configured", status.Services["redis"])
	assert.Equal(t, "unavailable", status.Services["storage"])
}
