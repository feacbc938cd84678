package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamPayload_Decode(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		success  bool
		expected *MediaDescriptor
		wantErr  bool
	}{
		{
			name:     "string_fields",
			body:     `{"success":true,"file":{"filename":"a.mp4","size":"10MB","thumb":"t.jpg","proxy_link":"d.mp4"}}`,
			success:  true,
			expected: &MediaDescriptor{Filename: "a.mp4", Size: "10MB", Thumbnail: "t.jpg", DownloadURL: "d.mp4"},
		},
		{
			name:     "numeric_size_kept_verbatim",
			body:     `{"success":true,"file":{"filename":"b.mkv","size":1048576,"thumb":null,"proxy_link":"d"}}`,
			success:  true,
			expected: &MediaDescriptor{Filename: "b.mkv", Size: "1048576", Thumbnail: "", DownloadURL: "d"},
		},
		{
			name:    "missing_file",
			body:    `{"success":true}`,
			success: true,
		},
		{
			name: "success_absent",
			body: `{"file":{"filename":"a"}}`,
		},
		{
			name:    "object_in_scalar_field",
			body:    `{"success":true,"file":{"filename":{"x":1}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload UpstreamPayload
			err := json.Unmarshal([]byte(tt.body), &payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.success, payload.Success)
			if tt.expected == nil {
				if payload.File != nil && payload.Success {
					t.Fatalf("expected no usable file, got %+v", payload.File)
				}
				return
			}
			require.NotNil(t, payload.File)
			assert.Equal(t, tt.expected, payload.File.Descriptor())
		})
	}
}

func TestResolutionResult_JSON(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		result := SuccessResult(&MediaDescriptor{Filename: "a.mp4", Size: "10MB", Thumbnail: "t.jpg", DownloadURL: "d.mp4"})

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"thumbnail":"t.jpg","filename":"a.mp4","size":"10MB","downloadUrl":"d.mp4"}`, string(data))
		assert.Equal(t, http.StatusOK, result.StatusCode())
		assert.True(t, result.IsSuccess())
	})

	t.Run("input_failure", func(t *testing.T) {
		result := FailureResult(NewInputError(""))

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"TeraBox URL is required"}`, string(data))
		assert.Equal(t, http.StatusBadRequest, result.StatusCode())
		assert.False(t, result.IsSuccess())
	})

	t.Run("exhaustion_failure", func(t *testing.T) {
		result := FailureResult(NewExhaustionError(4))

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"All APIs failed to resolve the URL. Please try again later."}`, string(data))
		assert.Equal(t, http.StatusInternalServerError, result.StatusCode())
	})

	t.Run("foreign_error_is_internal", func(t *testing.T) {
		result := FailureResult(errors.New("secret detail"))

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"Internal server error"}`, string(data))
		assert.Equal(t, http.StatusInternalServerError, result.StatusCode())
	})
}
