// Package client talks to a running resolve API and holds the state of a
// single resolve-and-play session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"teraplay/internal"
	"teraplay/utils"
)

// User-facing messages
const (
	MsgEnterURL      = "Please enter a TeraBox URL"
	MsgResolveFailed = "Failed to resolve URL"
	MsgBrokenLink    = "⚠️ Link broken or changed. Video file not available. Note: Links with multiple files are not supported."
)

const (
	resolvePath      = "/api/resolve"
	exhaustionMarker = "All APIs failed"
	maxResponseBody  = 1 << 20

	// covers a server trying every endpoint up to its own timeout
	defaultTimeout = 2 * time.Minute
)

// APIError is a non-2xx answer from the resolve API. Message is already
// suitable for display.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client resolves links through a remote resolve API
type Client struct {
	baseURL string
	http    *utils.HTTPClient
}

var _ internal.LinkResolver = (*Client)(nil)

// New creates a client for the API at baseURL, e.g. http://localhost:3000.
// A nil httpClient uses a single-attempt client with the default timeout.
func New(baseURL string, httpClient *utils.HTTPClient) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, internal.NewValidationError("server", "server URL is required")
	}
	if httpClient == nil {
		var err error
		httpClient, err = utils.NewHTTPClientWithConfig(&utils.HTTPClientConfig{
			Timeout:     defaultTimeout,
			RetryConfig: utils.SingleAttempt(),
		})
		if err != nil {
			return nil, err
		}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

type resolveResponse struct {
	internal.MediaDescriptor
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Resolve posts sourceURL to the API. Failures reported by the API are
// returned as *APIError.
func (c *Client) Resolve(ctx context.Context, sourceURL string) (*internal.MediaDescriptor, error) {
	payload, err := json.Marshal(internal.ResolutionRequest{URL: sourceURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+resolvePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()
	internal.GetLogger().LogHTTPResponse(resp)

	var data resolveResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil {
			internal.LogDebug("Unreadable error body (status %d): %v", resp.StatusCode, decodeErr)
			data.Error = ""
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: FriendlyMessage(data.Error)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	desc := data.MediaDescriptor
	return &desc, nil
}

// FriendlyMessage turns a server error message into the one shown to users.
// Exhaustion gets an actionable hint about broken and multi-file links.
func FriendlyMessage(serverMsg string) string {
	switch {
	case strings.Contains(serverMsg, exhaustionMarker):
		return MsgBrokenLink
	case serverMsg == "":
		return MsgResolveFailed
	default:
		return serverMsg
	}
}
