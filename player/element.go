package player

import (
	"sync"

	"github.com/samber/lo"
)

// Fullscreen change events, standard first, then vendor prefixed
const (
	EventFullscreenChange       = "fullscreenchange"
	EventWebkitFullscreenChange = "webkitfullscreenchange"
	EventMozFullscreenChange    = "mozfullscreenchange"
	EventMSFullscreenChange     = "MSFullscreenChange"
)

// FullscreenEvents lists every event that signals a fullscreen change
var FullscreenEvents = []string{
	EventFullscreenChange,
	EventWebkitFullscreenChange,
	EventMozFullscreenChange,
	EventMSFullscreenChange,
}

// Handler receives the name of the dispatched event
type Handler func(event string)

// ListenerID identifies a registered handler
type ListenerID uint64

// Element is a media element a library can be attached to
type Element interface {
	Source() string
	SetSource(url string)
	IsFullscreen() bool
	AddEventListener(event string, handler Handler) ListenerID
	RemoveEventListener(event string, id ListenerID)
}

// MediaElement is an in-process Element. Fullscreen changes are announced
// through SetFullscreen.
type MediaElement struct {
	mutex      sync.Mutex
	source     string
	fullscreen bool
	nextID     ListenerID
	listeners  map[string]map[ListenerID]Handler
}

var _ Element = (*MediaElement)(nil)

// NewMediaElement creates an element with no source
func NewMediaElement() *MediaElement {
	return &MediaElement{listeners: make(map[string]map[ListenerID]Handler)}
}

func (e *MediaElement) Source() string {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.source
}

func (e *MediaElement) SetSource(url string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.source = url
}

func (e *MediaElement) IsFullscreen() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.fullscreen
}

func (e *MediaElement) AddEventListener(event string, handler Handler) ListenerID {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.nextID++
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[ListenerID]Handler)
	}
	e.listeners[event][e.nextID] = handler
	return e.nextID
}

func (e *MediaElement) RemoveEventListener(event string, id ListenerID) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.listeners[event], id)
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// SetFullscreen changes the fullscreen state and dispatches
// EventFullscreenChange when it actually changed.
func (e *MediaElement) SetFullscreen(on bool) {
	e.mutex.Lock()
	changed := e.fullscreen != on
	e.fullscreen = on
	e.mutex.Unlock()

	if changed {
		e.Dispatch(EventFullscreenChange)
	}
}

// Dispatch calls every handler registered for event. Handlers run outside
// the element's lock and may modify listeners.
func (e *MediaElement) Dispatch(event string) {
	e.mutex.Lock()
	handlers := lo.Values(e.listeners[event])
	e.mutex.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// ListenerCount returns the number of handlers registered for event
func (e *MediaElement) ListenerCount(event string) int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return len(e.listeners[event])
}
