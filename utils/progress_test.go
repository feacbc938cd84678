package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestProgressTracker_BasicFunctionality(t *testing.T) {
	tracker := NewProgressTracker(1000, true)
	if !tracker.IsQuiet() {
		t.Error("Expected quiet tracker to be in quiet mode")
	}

	tracker.Update(500)
	if percentage := tracker.Percentage(); percentage != 50.0 {
		t.Errorf("Expected 50%% progress, got %.1f%%", percentage)
	}

	summary := tracker.Finish("video.mp4")
	if summary == nil {
		t.Fatal("Expected summary to be returned")
	}
	if summary.TotalBytes != 500 {
		t.Errorf("Expected 500 bytes, got %d", summary.TotalBytes)
	}
	if summary.Filename != "video.mp4" {
		t.Errorf("Expected filename video.mp4, got %s", summary.Filename)
	}
}

func TestProgressTracker_Writer(t *testing.T) {
	tracker := NewProgressTracker(1000, true)
	tracker.Resume(400)

	n, err := io.Copy(io.MultiWriter(io.Discard, tracker.Writer()), strings.NewReader(strings.Repeat("x", 600)))
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if n != 600 {
		t.Fatalf("Expected 600 bytes copied, got %d", n)
	}
	if percentage := tracker.Percentage(); percentage != 100.0 {
		t.Errorf("Expected 100%% progress, got %.1f%%", percentage)
	}

	summary := tracker.Finish("")
	if summary.TotalBytes != 1000 {
		t.Errorf("Expected 1000 bytes, got %d", summary.TotalBytes)
	}
	if summary.AverageSpeed < 0 {
		t.Error("Average speed should not be negative")
	}
}

func TestProgressTracker_UnknownTotal(t *testing.T) {
	tracker := NewProgressTracker(0, true)
	tracker.Update(12345)

	if percentage := tracker.Percentage(); percentage != 0 {
		t.Errorf("Expected 0%% for unknown total, got %.1f%%", percentage)
	}
}

func TestProgressTracker_NonQuietMode(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTrackerTo(&out, 1000, false)

	if tracker.IsQuiet() {
		t.Error("Expected non-quiet tracker")
	}

	tracker.Update(250)
	tracker.Update(1000)
	tracker.Finish("/tmp/video.mp4")

	output := out.String()
	if !strings.Contains(output, "Download completed successfully!") {
		t.Errorf("Expected summary in output, got %q", output)
	}
	if !strings.Contains(output, "Saved to: /tmp/video.mp4") {
		t.Errorf("Expected destination in output, got %q", output)
	}
}

func TestProgressTracker_Abort(t *testing.T) {
	var out bytes.Buffer
	tracker := NewProgressTrackerTo(&out, 100, false)
	tracker.Update(10)
	tracker.Abort()

	if strings.Contains(out.String(), "Download completed") {
		t.Error("Abort must not print a summary")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
		{5368709120, "5.0 GB"},
	}

	for _, test := range tests {
		if result := FormatBytes(test.bytes); result != test.expected {
			t.Errorf("FormatBytes(%d) = %s, expected %s", test.bytes, result, test.expected)
		}
	}
}
