package internal

import (
	"context"
	"net/http"
)

// LinkResolver turns a share link into a media descriptor
type LinkResolver interface {
	Resolve(ctx context.Context, sourceURL string) (*MediaDescriptor, error)
}

// Fetcher issues outbound GET requests
type Fetcher interface {
	GetWithContext(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// DownloadEngine saves a resolved file to disk
type DownloadEngine interface {
	Download(ctx context.Context, meta *MediaDescriptor, config *DownloadConfig) error
}

// RateLimiter controls bandwidth usage
type RateLimiter interface {
	Wait(ctx context.Context, n int) error
	SetRate(bytesPerSecond int64)
}
