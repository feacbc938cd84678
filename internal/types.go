package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// ResolverEndpoint describes one external resolver service. Order in the
// configured list defines trial priority.
type ResolverEndpoint struct {
	Name        string `json:"name" mapstructure:"name"`
	URLTemplate string `json:"url" mapstructure:"url"`
}

// ResolutionRequest is the inbound body of POST /api/resolve
type ResolutionRequest struct {
	URL string `json:"url"`
}

// MediaDescriptor is the canonical result handed to the client, regardless of
// which endpoint produced it. All fields are copied verbatim from upstream.
type MediaDescriptor struct {
	Thumbnail   string `json:"thumbnail"`
	Filename    string `json:"filename"`
	Size        string `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// ResolutionFailure is the failure variant of a ResolutionResult
type ResolutionFailure struct {
	Error      string `json:"error"`
	HTTPStatus int    `json:"-"`
}

// ResolutionResult holds exactly one of Descriptor or Failure.
type ResolutionResult struct {
	Descriptor *MediaDescriptor
	Failure    *ResolutionFailure
}

// SuccessResult wraps a descriptor into a ResolutionResult
func SuccessResult(desc *MediaDescriptor) ResolutionResult {
	return ResolutionResult{Descriptor: desc}
}

// FailureResult converts any error into the failure variant. Errors that are
// not a *ResolveError are reported as internal errors so no detail leaks.
func FailureResult(err error) ResolutionResult {
	resolveErr, ok := AsResolveError(err)
	if !ok {
		resolveErr = NewInternalError(err)
	}
	return ResolutionResult{
		Failure: &ResolutionFailure{
			Error:      resolveErr.PublicMessage(),
			HTTPStatus: resolveErr.Status,
		},
	}
}

// IsSuccess reports whether the result carries a descriptor
func (r ResolutionResult) IsSuccess() bool {
	return r.Descriptor != nil
}

// StatusCode returns the HTTP status that goes with the result
func (r ResolutionResult) StatusCode() int {
	if r.Descriptor != nil {
		return http.StatusOK
	}
	if r.Failure != nil && r.Failure.HTTPStatus != 0 {
		return r.Failure.HTTPStatus
	}
	return http.StatusInternalServerError
}

// MarshalJSON renders the success variant as {success:true, ...descriptor}
// and the failure variant as {error: "..."}.
func (r ResolutionResult) MarshalJSON() ([]byte, error) {
	if r.Descriptor != nil {
		return json.Marshal(struct {
			Success bool `json:"success"`
			*MediaDescriptor
		}{true, r.Descriptor})
	}
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	return json.Marshal(ResolutionFailure{Error: MsgInternal})
}

// UpstreamPayload is what every resolver endpoint is expected to return
type UpstreamPayload struct {
	Success bool          `json:"success"`
	File    *UpstreamFile `json:"file"`
}

// UpstreamFile is the nested file descriptor of an UpstreamPayload
type UpstreamFile struct {
	Filename  OpaqueString `json:"filename"`
	Size      OpaqueString `json:"size"`
	Thumb     OpaqueString `json:"thumb"`
	ProxyLink OpaqueString `json:"proxy_link"`
}

// Descriptor maps the upstream fields onto a MediaDescriptor without
// transforming them.
func (f *UpstreamFile) Descriptor() *MediaDescriptor {
	return &MediaDescriptor{
		Thumbnail:   string(f.Thumb),
		Filename:    string(f.Filename),
		Size:        string(f.Size),
		DownloadURL: string(f.ProxyLink),
	}
}

// OpaqueString accepts any JSON scalar. Strings are unquoted, other scalars
// keep their raw JSON text and null becomes the empty string.
type OpaqueString string

func (s *OpaqueString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}

	switch trimmed[0] {
	case '"':
		var str string
		if err := json.Unmarshal(trimmed, &str); err != nil {
			return err
		}
		*s = OpaqueString(str)
	case '{', '[':
		return fmt.Errorf("expected a JSON scalar, got %c...", trimmed[0])
	default:
		*s = OpaqueString(trimmed)
	}
	return nil
}

// DownloadConfig contains configuration for saving a resolved file to disk
type DownloadConfig struct {
	OutputPath string
	RateLimit  int64 // bytes per second, 0 disables limiting
	Quiet      bool
}
