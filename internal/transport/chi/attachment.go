package chi

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/logview/internal/logger"
)

// attachment is an export.Downloader answering the request with a file download.
type attachment struct {
	w http.ResponseWriter
}

// Save writes data as an attachment named filename. Once the header is sent
// the response can no longer carry an error, so write failures are only logged.
func (a attachment) Save(ctx context.Context, filename, contentType string, data []byte) error {
	h := a.w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	a.w.WriteHeader(http.StatusOK)
	if _, err := a.w.Write(data); err != nil {
		logpkg.FromContext(ctx).Warn("Failed to write attachment",
			zap.String("filename", filename), zap.Error(err))
	}
	return nil
}
