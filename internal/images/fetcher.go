package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

// DefaultMaxBytes caps a remote asset at the same size as a direct upload
const DefaultMaxBytes = 10 << 20

// Fetcher retrieves remote assets so they can be placed into a slot
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64
}

// NewFetcher creates a new asset fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		MaxBytes: DefaultMaxBytes,
	}
}

// Fetch downloads rawURL into memory. The file name is taken from the last path segment.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (models.File, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.File{}, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return models.File{}, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to build request: %w", err)
	}

	slog.Info("Fetching remote asset", "url", u.String())
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.File{}, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read asset: %w", err)
	}
	if int64(len(data)) > limit {
		return models.File{}, fmt.Errorf("asset exceeds %d bytes", limit)
	}

	file := models.File{
		Name:     fileName(u),
		MIMEType: contentType(resp.Header.Get("Content-Type"), data),
		Data:     data,
	}
	slog.Info("Fetched remote asset", "url", u.String(), "name", file.Name, "bytes", file.Size(), "mime", file.MIMEType)
	return file, nil
}

func fileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}

func contentType(header string, data []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	detected := http.DetectContentType(data)
	if detected == "application/octet-stream" || detected == "text/plain; charset=utf-8" {
		// leave classification of opaque blobs to the validator's extension checks
		return ""
	}
	return detected
}
