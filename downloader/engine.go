package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"teraplay/internal"
	"teraplay/utils"
)

// DefaultFilename is used when a descriptor carries no usable name
const DefaultFilename = "video.mp4"

// StreamEngine implements internal.DownloadEngine as a single sequential
// stream into a .part file that is renamed once complete.
type StreamEngine struct {
	fetcher internal.Fetcher
	fileOps *utils.FileOperations
	stderr  io.Writer
}

var _ internal.DownloadEngine = (*StreamEngine)(nil)

// NewStreamEngine creates an engine on the OS filesystem
func NewStreamEngine(fetcher internal.Fetcher) *StreamEngine {
	return NewStreamEngineWithFs(fetcher, afero.NewOsFs())
}

// NewStreamEngineWithFs creates an engine on the given filesystem
func NewStreamEngineWithFs(fetcher internal.Fetcher, fs afero.Fs) *StreamEngine {
	return &StreamEngine{
		fetcher: fetcher,
		fileOps: utils.NewFileOperationsWithFs(fs),
		stderr:  os.Stderr,
	}
}

// SetProgressOutput redirects the progress bar and summary
func (e *StreamEngine) SetProgressOutput(w io.Writer) {
	e.stderr = w
}

// Download fetches meta.DownloadURL into config.OutputPath. A leftover .part
// file is resumed with a Range request. On cancellation the .part file is
// kept for the next attempt, any other failure removes it.
func (e *StreamEngine) Download(ctx context.Context, meta *internal.MediaDescriptor, config *internal.DownloadConfig) error {
	if meta == nil {
		return fmt.Errorf("media descriptor cannot be nil")
	}
	if config == nil {
		return fmt.Errorf("download config cannot be nil")
	}
	if strings.TrimSpace(meta.DownloadURL) == "" {
		return internal.NewValidationError("downloadUrl", "descriptor has no download URL")
	}

	outputPath := e.OutputPath(meta, config.OutputPath)
	if err := e.fileOps.EnsureDir(outputPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	partExists, offset, err := e.fileOps.DetectPartialDownload(outputPath)
	if err != nil {
		return fmt.Errorf("failed to inspect partial download: %w", err)
	}

	headers := map[string]string{}
	if partExists && offset > 0 {
		headers["Range"] = fmt.Sprintf("bytes=%d-", offset)
		internal.LogInfo("Resuming %s from %s", outputPath, utils.FormatBytes(offset))
	}

	resp, err := e.fetcher.GetWithContext(ctx, meta.DownloadURL, headers)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0 {
			// Everything was already fetched
			return e.finish(outputPath, offset)
		}
		return fmt.Errorf("failed to start download: %w", err)
	}
	defer resp.Body.Close()

	resume := resp.StatusCode == http.StatusPartialContent && offset > 0
	if !resume {
		offset = 0
	}

	file, err := e.fileOps.OpenPartialFile(outputPath, resume)
	if err != nil {
		return err
	}

	total := int64(0)
	if resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}
	tracker := utils.NewProgressTrackerTo(e.stderr, total, config.Quiet)
	tracker.Resume(offset)

	var limiter internal.RateLimiter
	if config.RateLimit > 0 {
		limiter = utils.NewTokenBucketLimiter(config.RateLimit)
	}

	body := utils.NewRateLimitedReader(ctx, resp.Body, limiter)
	written, copyErr := io.Copy(io.MultiWriter(file, tracker.Writer()), body)
	closeErr := file.Close()

	if copyErr == nil && closeErr == nil && resp.ContentLength > 0 && written != resp.ContentLength {
		copyErr = fmt.Errorf("download truncated: got %d of %d bytes", written, resp.ContentLength)
	}

	if copyErr != nil || closeErr != nil {
		tracker.Abort()
		failure := copyErr
		if failure == nil {
			failure = closeErr
		}
		if ctx.Err() != nil {
			internal.LogWarn("Download interrupted, partial file kept for resume: %s%s", outputPath, utils.PartSuffix)
			return fmt.Errorf("download interrupted: %w", ctx.Err())
		}
		if err := e.fileOps.Remove(outputPath + utils.PartSuffix); err != nil {
			internal.LogWarn("Failed to remove partial file: %v", err)
		}
		return fmt.Errorf("download failed: %w", failure)
	}

	if err := e.finish(outputPath, offset+written); err != nil {
		return err
	}
	tracker.Finish(outputPath)
	return nil
}

func (e *StreamEngine) finish(outputPath string, size int64) error {
	if err := e.fileOps.AtomicRename(outputPath+utils.PartSuffix, outputPath); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	internal.WithFields(map[string]interface{}{
		"path":  outputPath,
		"bytes": size,
	}).Info("Download complete")
	return nil
}

// OutputPath decides where a descriptor is saved. An empty output uses the
// descriptor's filename in the working directory and an existing directory
// receives the file inside it.
func (e *StreamEngine) OutputPath(meta *internal.MediaDescriptor, output string) string {
	name := SanitizeFilename(meta.Filename)
	if output == "" {
		return name
	}
	if info, err := e.fileOps.Fs().Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, name)
	}
	return output
}

// SanitizeFilename strips directories and characters that are unsafe in file
// names, falling back to DefaultFilename.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return DefaultFilename
	}
	return name
}
