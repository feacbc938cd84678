package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// PartSuffix marks an in-progress download
const PartSuffix = ".part"

// FileOperations provides file system utilities on top of an afero backend so
// tests can run against memory.
type FileOperations struct {
	fs afero.Afero
}

// NewFileOperations uses the OS filesystem
func NewFileOperations() *FileOperations {
	return NewFileOperationsWithFs(afero.NewOsFs())
}

// NewFileOperationsWithFs uses the given filesystem
func NewFileOperationsWithFs(fs afero.Fs) *FileOperations {
	return &FileOperations{fs: afero.Afero{Fs: fs}}
}

// Fs returns the underlying filesystem
func (f *FileOperations) Fs() afero.Fs {
	return f.fs.Fs
}

// EnsureDir creates the parent directory of path if it doesn't exist
func (f *FileOperations) EnsureDir(path string) error {
	return f.fs.MkdirAll(filepath.Dir(path), 0755)
}

// FileExists checks if a file exists
func (f *FileOperations) FileExists(path string) bool {
	exists, err := f.fs.Exists(path)
	return err == nil && exists
}

// GetFileSize returns the size of a file
func (f *FileOperations) GetFileSize(path string) (int64, error) {
	info, err := f.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// AtomicRename moves a finished download into place
func (f *FileOperations) AtomicRename(oldPath, newPath string) error {
	return f.fs.Rename(oldPath, newPath)
}

// Remove deletes a file, ignoring files that are already gone
func (f *FileOperations) Remove(path string) error {
	if err := f.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DetectPartialDownload checks if a partial download exists and returns its size
func (f *FileOperations) DetectPartialDownload(outputPath string) (bool, int64, error) {
	info, err := f.fs.Stat(outputPath + PartSuffix)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}

	return true, info.Size(), nil
}

// OpenPartialFile opens the .part file for writing. With resume the file is
// appended to, otherwise it is truncated.
func (f *FileOperations) OpenPartialFile(outputPath string, resume bool) (afero.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if resume {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := f.fs.OpenFile(outputPath+PartSuffix, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open partial file: %w", err)
	}
	return file, nil
}
