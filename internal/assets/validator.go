package assets

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

const (
	TrackerExt = ".mind"
	GLBExt     = ".glb"
	GLTFExt    = ".gltf"
)

// ImageCompressor downsamples reference images before they become assets
type ImageCompressor interface {
	ShouldCompress(f models.File) bool
	Compress(ctx context.Context, f models.File) (models.File, error)
}

// Validator decides whether a file is acceptable for a slot
type Validator struct {
	compressor ImageCompressor
}

func NewValidator(compressor ImageCompressor) *Validator {
	return &Validator{compressor: compressor}
}

// NeedsProcessing reports whether Validate will suspend on compression for this file
func (v *Validator) NeedsProcessing(kind models.SlotKind, f models.File) bool {
	return kind == models.SlotImage && v.compressor != nil && isImage(f) && v.compressor.ShouldCompress(f)
}

// Validate returns the normalized file for the slot or a *ValidationError / *ProcessingError.
func (v *Validator) Validate(ctx context.Context, kind models.SlotKind, f models.File) (models.File, error) {
	if f.Size() == 0 {
		return models.File{}, &ValidationError{Kind: kind, Name: f.Name, Reason: "empty file"}
	}

	switch kind {
	case models.SlotTracker:
		if !hasExt(f.Name, TrackerExt) {
			return models.File{}, &ValidationError{Kind: kind, Name: f.Name, Reason: "invalid tracker file"}
		}
		if f.MIMEType == "" {
			f.MIMEType = "application/octet-stream"
		}
		return f, nil

	case models.SlotImage:
		if f.MIMEType == "" {
			f.MIMEType = http.DetectContentType(f.Data)
		}
		if !isImage(f) {
			return models.File{}, &ValidationError{Kind: kind, Name: f.Name, Reason: "invalid image file"}
		}
		if !v.NeedsProcessing(kind, f) {
			return f, nil
		}
		slog.Info("Compressing reference image", "name", f.Name, "bytes", f.Size())
		out, err := v.compressor.Compress(ctx, f)
		if err != nil {
			return models.File{}, &ProcessingError{Name: f.Name, Err: err}
		}
		return out, nil

	case models.SlotModel:
		switch {
		case hasExt(f.Name, GLBExt):
			f.MIMEType = "model/gltf-binary"
		case hasExt(f.Name, GLTFExt):
			f.MIMEType = "model/gltf+json"
		default:
			return models.File{}, &ValidationError{Kind: kind, Name: f.Name, Reason: "invalid model file"}
		}
		return f, nil
	}

	return models.File{}, &ValidationError{Kind: kind, Name: f.Name, Reason: "unknown slot"}
}

func isImage(f models.File) bool {
	return strings.HasPrefix(strings.ToLower(f.MIMEType), "image/")
}

func hasExt(name, ext string) bool {
	return strings.HasSuffix(strings.ToLower(name), ext)
}
