package player

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"teraplay/internal"
)

const mpvBinary = "mpv"

// MPV plays through an external mpv process
type MPV struct {
	path       string
	fullscreen bool
	stdout     io.Writer
	stderr     io.Writer
}

var _ Library = (*MPV)(nil)

// MPVLoader locates mpv in PATH
func MPVLoader(fullscreen bool) Loader {
	return LoaderFunc(func(ctx context.Context) (Library, error) {
		path, err := exec.LookPath(mpvBinary)
		if err != nil {
			return nil, internal.NewValidationError("player", "mpv was not found in PATH").
				WithSuggestion("Install mpv or use the download command instead")
		}
		return &MPV{path: path, fullscreen: fullscreen, stdout: os.Stdout, stderr: os.Stderr}, nil
	})
}

// Args builds the mpv command line for source
func (m *MPV) Args(source string, opts Options) []string {
	args := []string{"--force-window=immediate", "--osd-color=" + opts.PrimaryColor}
	if !opts.AutoPlay {
		args = append(args, "--pause")
	}
	if opts.Mute {
		args = append(args, "--mute=yes")
	} else {
		args = append(args, "--mute=no")
	}
	if opts.FillToContainer {
		args = append(args, "--autofit=100%x100%")
	}
	if m.fullscreen {
		args = append(args, "--fs")
	}
	return append(args, "--", source)
}

func (m *MPV) Init(element Element, opts Options) (Player, error) {
	source := element.Source()
	if source == "" {
		return nil, fmt.Errorf("element has no source")
	}

	cmd := exec.Command(m.path, m.Args(source, opts)...)
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}
	internal.LogDebug("Started mpv (pid %d)", cmd.Process.Pid)

	p := &mpvPlayer{cmd: cmd, done: make(chan struct{})}
	go func() {
		if err := cmd.Wait(); err != nil {
			internal.LogDebug("mpv exited: %v", err)
		}
		close(p.done)
	}()
	return p, nil
}

type mpvPlayer struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (p *mpvPlayer) Done() <-chan struct{} {
	return p.done
}

// Destroy stops mpv if it is still running
func (p *mpvPlayer) Destroy() error {
	var err error
	p.once.Do(func() {
		select {
		case <-p.done:
		default:
			err = p.cmd.Process.Kill()
			<-p.done
		}
	})
	return err
}
