package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"teraplay/downloader"
	"teraplay/internal"
)

// State is the request state of a Session
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// View is what a successful result currently shows
type View int

const (
	// ViewHidden shows the info card with a blurred thumbnail
	ViewHidden View = iota
	// ViewRevealed shows the info card with the thumbnail uncovered
	ViewRevealed
	// ViewPlayer shows the player
	ViewPlayer
)

func (v View) String() string {
	switch v {
	case ViewHidden:
		return "hidden"
	case ViewRevealed:
		return "revealed"
	case ViewPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the session state
type Snapshot struct {
	State      State
	View       View
	Descriptor *internal.MediaDescriptor
	Error      string
}

// Session drives one resolve-and-play flow. Each Submit is tagged with a
// sequence number and a response that arrives after a newer Submit or Reset
// is dropped.
type Session struct {
	resolver internal.LinkResolver

	mutex      sync.Mutex
	seq        uint64
	state      State
	descriptor *internal.MediaDescriptor
	err        string
	revealed   bool
	player     bool
}

// NewSession creates an idle session resolving through resolver
func NewSession(resolver internal.LinkResolver) *Session {
	return &Session{resolver: resolver}
}

// Submit resolves sourceURL and returns the resulting state. An empty URL
// fails immediately without a request.
func (s *Session) Submit(ctx context.Context, sourceURL string) Snapshot {
	s.mutex.Lock()
	s.seq++
	seq := s.seq
	s.clearLocked()

	if strings.TrimSpace(sourceURL) == "" {
		s.state = StateError
		s.err = MsgEnterURL
		defer s.mutex.Unlock()
		return s.snapshotLocked()
	}
	s.state = StateLoading
	s.mutex.Unlock()

	desc, err := s.resolver.Resolve(ctx, sourceURL)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if seq != s.seq {
		internal.LogDebug("Dropping stale response for request #%d, latest is #%d", seq, s.seq)
		return s.snapshotLocked()
	}

	if err != nil {
		s.state = StateError
		s.err = errorMessage(err)
		return s.snapshotLocked()
	}
	s.state = StateSuccess
	s.descriptor = desc
	return s.snapshotLocked()
}

// RevealThumbnail uncovers the thumbnail of a successful result
func (s *Session) RevealThumbnail() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state == StateSuccess {
		s.revealed = true
	}
}

// Watch switches to the player. It reports false unless a result is present.
func (s *Session) Watch() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != StateSuccess {
		return false
	}
	s.player = true
	return true
}

// Back leaves the player for the info card
func (s *Session) Back() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.player = false
}

// DownloadLink returns the direct URL and the suggested file name
func (s *Session) DownloadLink() (string, string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.state != StateSuccess || s.descriptor == nil || s.descriptor.DownloadURL == "" {
		return "", "", false
	}
	name := s.descriptor.Filename
	if name == "" {
		name = downloader.DefaultFilename
	}
	return s.descriptor.DownloadURL, name, true
}

// Reset returns to idle and invalidates any request in flight
func (s *Session) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.seq++
	s.clearLocked()
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.snapshotLocked()
}

func (s *Session) clearLocked() {
	s.state = StateIdle
	s.descriptor = nil
	s.err = ""
	s.revealed = false
	s.player = false
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Error: s.err}
	if s.descriptor != nil {
		desc := *s.descriptor
		snap.Descriptor = &desc
		switch {
		case s.player:
			snap.View = ViewPlayer
		case s.revealed:
			snap.View = ViewRevealed
		}
	}
	return snap
}

// errorMessage picks the text shown for a failed resolve. In-process
// resolver errors get the same treatment as API responses.
func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if resolveErr, ok := internal.AsResolveError(err); ok {
		return FriendlyMessage(resolveErr.PublicMessage())
	}
	return err.Error()
}
