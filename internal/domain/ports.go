package domain

import (
	"context"

	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/storage"
)

// Mailer delivers rendered messages. Callers treat failures after a
// successful write as non-fatal.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// FileStorage stores blobs under a folder and returns {url, publicId}.
type FileStorage interface {
	Upload(ctx context.Context, data []byte, folder, filename, contentType string) (*storage.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	UserID       string
	Email        string
	Role         string
	Organization string
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin }
func (a Actor) IsEmployee() bool { return a.Role == RoleEmployee }

// CanManage reports whether the actor may mutate records owned by organization.
func (a Actor) CanManage(organization string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsEmployee() && a.Organization != "" && a.Organization == organization
}

// UploadedFile is a multipart file already read into memory.
type UploadedFile struct {
	Filename string
	Data     []byte
}
