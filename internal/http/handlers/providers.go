package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/audit"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

const maxPhotoBytes = 5 << 20

// ProvidersHandler adds the profile photo upload to the providers page.
type ProvidersHandler struct {
	env       *Env
	providers *ResourceHandler[clinikpe.Provider, clinikpe.ProviderInput]
}

func NewProvidersHandler(env *Env, providers *ResourceHandler[clinikpe.Provider, clinikpe.ProviderInput]) *ProvidersHandler {
	return &ProvidersHandler{env: env, providers: providers}
}

// UploadPhoto handles POST /api/providers/{id}/photo. The "photo" part of the
// multipart form is passed through to the backend unchanged.
func (h *ProvidersHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
	h.providers.mutate(w, r, audit.ActionUpdate, http.StatusOK, "Photo uploaded successfully",
		func(ctx context.Context, ref Ref) error {
			photo, err := readPhoto(r)
			if err != nil {
				return err
			}
			_, err = h.env.API.UploadProviderPhoto(ctx, ref.Session.Scope(), ref.ID, photo)
			return err
		})
}

func readPhoto(r *http.Request) (apiclient.File, error) {
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		return apiclient.File{}, badRequest("Upload the photo as multipart form data")
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		return apiclient.File{}, badRequest("Choose a photo to upload")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		return apiclient.File{}, badRequest("Photo could not be read")
	}
	if len(content) > maxPhotoBytes {
		return apiclient.File{}, badRequest("Photo must be 5 MB or smaller")
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return apiclient.File{}, badRequest("Photo must be an image")
	}
	return apiclient.File{
		Field:       "photo",
		Name:        header.Filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}
