package usecase

import (
	"context"
	"path/filepath"
	"strings"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/imaging"
	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/storage"
)

// uploadFolders maps each accepted folder to the file kinds it takes.
var uploadFolders = map[string][]security.FileKind{
	"profile-photos": {security.KindImage},
	"logos":          {security.KindImage},
	"documents":      {security.KindDocument, security.KindImage},
	"resumes":        {security.KindDocument},
}

type uploadUsecase struct {
	storage domain.FileStorage
}

func NewUploadUsecase(storage domain.FileStorage) domain.UploadUsecase {
	return &uploadUsecase{storage: storage}
}

func (uc *uploadUsecase) Upload(ctx context.Context, actor domain.Actor, folder string, file domain.UploadedFile) (*storage.UploadResult, error) {
	kinds, ok := uploadFolders[folder]
	if !ok {
		return nil, apperror.BadRequest("Unknown upload folder")
	}

	check := security.ValidateFile(file.Filename, file.Data, kinds...)
	if !check.Valid {
		security.DefaultLogger().Log(ctx, security.SecurityEvent{
			Event:        security.EventUploadRejected,
			SubjectType:  "user_id",
			SubjectValue: actor.UserID,
			Details:      map[string]any{"folder": folder, "reason": check.Error, "detected_mime": check.DetectedMIME},
		})
		return nil, apperror.BadRequest("Invalid file: " + check.Error)
	}

	data := file.Data
	filename := file.Filename
	contentType := security.ContentTypeFor(check.Extension)
	if check.Kind == security.KindImage {
		compressed, err := imaging.Compress(file.Data, imaging.DefaultMaxDimension, imaging.DefaultQuality)
		if err != nil {
			return nil, apperror.BadRequest("Could not process image")
		}
		data = compressed
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
		contentType = "image/jpeg"
	}

	result, err := uc.storage.Upload(ctx, data, folder+"/"+actor.UserID, filename, contentType)
	if err != nil {
		return nil, apperror.ServiceUnavailable("Could not store the file. Please try again later.", err)
	}
	return result, nil
}
