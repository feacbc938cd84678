package utils

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

// ProgressTracker displays download progress and collects summary statistics
type ProgressTracker struct {
	bar       *pb.ProgressBar
	quiet     bool
	out       io.Writer
	startTime time.Time
	total     int64
	current   int64
	offset    int64
	mutex     sync.RWMutex
}

// DownloadSummary contains final download statistics
type DownloadSummary struct {
	TotalBytes   int64
	TotalTime    time.Duration
	AverageSpeed float64 // bytes per second, excluding resumed bytes
	Filename     string
}

// NewProgressTracker creates a tracker writing its bar to stderr. total may be
// zero when the server sends no length; the bar then shows a running count.
func NewProgressTracker(total int64, quiet bool) *ProgressTracker {
	return NewProgressTrackerTo(os.Stderr, total, quiet)
}

// NewProgressTrackerTo creates a tracker writing to out
func NewProgressTrackerTo(out io.Writer, total int64, quiet bool) *ProgressTracker {
	tracker := &ProgressTracker{
		quiet:     quiet,
		out:       out,
		startTime: time.Now(),
		total:     total,
	}

	if !quiet {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
		bar := pb.New64(total).SetTemplate(pb.ProgressBarTemplate(tmpl))
		bar.SetWriter(out)
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", "Downloading: ")
		tracker.bar = bar.Start()
	}

	return tracker
}

// Resume records bytes already on disk from an earlier attempt
func (p *ProgressTracker) Resume(offset int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.offset = offset
	p.current = offset
	if p.bar != nil {
		p.bar.SetCurrent(offset)
	}
}

// Update sets the absolute number of bytes written
func (p *ProgressTracker) Update(current int64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current = current
	if p.bar != nil {
		p.bar.SetCurrent(current)
	}
}

// Writer returns an io.Writer that advances the tracker by every byte written
func (p *ProgressTracker) Writer() io.Writer {
	return progressWriter{p}
}

type progressWriter struct {
	tracker *ProgressTracker
}

func (w progressWriter) Write(b []byte) (int, error) {
	w.tracker.mutex.Lock()
	w.tracker.current += int64(len(b))
	if w.tracker.bar != nil {
		w.tracker.bar.Add(len(b))
	}
	w.tracker.mutex.Unlock()
	return len(b), nil
}

// Finish completes the progress bar and returns download summary
func (p *ProgressTracker) Finish(filename string) *DownloadSummary {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	totalTime := time.Since(p.startTime)
	if p.bar != nil {
		p.bar.Finish()
	}

	summary := &DownloadSummary{
		TotalBytes: p.current,
		TotalTime:  totalTime,
		Filename:   filename,
	}
	if seconds := totalTime.Seconds(); seconds > 0 {
		summary.AverageSpeed = float64(p.current-p.offset) / seconds
	}

	if !p.quiet {
		p.displaySummary(summary)
	}

	return summary
}

// Abort stops the bar without printing a summary
func (p *ProgressTracker) Abort() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.bar != nil {
		p.bar.Finish()
	}
}

func (p *ProgressTracker) displaySummary(summary *DownloadSummary) {
	fmt.Fprintf(p.out, "\nDownload completed successfully!\n")
	fmt.Fprintf(p.out, "Total size: %s\n", FormatBytes(summary.TotalBytes))
	fmt.Fprintf(p.out, "Total time: %v\n", summary.TotalTime.Round(time.Millisecond))
	fmt.Fprintf(p.out, "Average speed: %s/s\n", FormatBytes(int64(summary.AverageSpeed)))
	if summary.Filename != "" {
		fmt.Fprintf(p.out, "Saved to: %s\n", summary.Filename)
	}
}

// Percentage returns the completed share, 0 when the total is unknown
func (p *ProgressTracker) Percentage() float64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.total <= 0 {
		return 0
	}
	return float64(p.current) / float64(p.total) * 100
}

// IsQuiet returns whether the tracker is in quiet mode
func (p *ProgressTracker) IsQuiet() bool {
	return p.quiet
}

// FormatBytes formats byte count as human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
