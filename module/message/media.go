package message

import (
	"context"
	"fmt"
	"strings"
)

// Uploader turns an inline image payload into a durable URL. The real
// implementation lives with the media host; the gateway only needs the
// exchange to be opaque.
type Uploader interface {
	Upload(ctx context.Context, inline string) (string, error)
}

// PassthroughUploader accepts data URLs and already-hosted http(s) URLs
// as-is. Good enough for development and for deployments that upload on the
// client side.
type PassthroughUploader struct {
	MaxBytes int
}

func (u PassthroughUploader) Upload(_ context.Context, inline string) (string, error) {
	if u.MaxBytes > 0 && len(inline) > u.MaxBytes {
		return "", fmt.Errorf("image payload exceeds %d bytes", u.MaxBytes)
	}
	if strings.HasPrefix(inline, "data:") ||
		strings.HasPrefix(inline, "http://") ||
		strings.HasPrefix(inline, "https://") {
		return inline, nil
	}
	return "", fmt.Errorf("unsupported image payload")
}
