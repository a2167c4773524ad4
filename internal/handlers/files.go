package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

var errTooLarge = errors.New("file too large (max 10MB)")

// readFormFile reads a multipart field into memory, capped at MaxUploadBytes
func readFormFile(r *http.Request, field string) (models.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return models.File{}, err
	}
	defer file.Close()
	return readPart(file, header)
}

func readPart(file multipart.File, header *multipart.FileHeader) (models.File, error) {
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read file contents: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return models.File{}, errTooLarge
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	return models.File{
		Name:     filepath.Base(header.Filename),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
