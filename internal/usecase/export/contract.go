package export

import "context"

// Downloader saves an exported file (browser download, HTTP attachment, file on disk).
type Downloader interface {
	Save(ctx context.Context, filename, contentType string, data []byte) error
}
