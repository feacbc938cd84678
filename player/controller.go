package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"teraplay/internal"
)

type listener struct {
	event string
	id    ListenerID
}

// Controller attaches the playback library to one element at a time and
// locks the orientation to landscape while that element is fullscreen.
type Controller struct {
	registry    *Registry
	loader      Loader
	orientation Orientation

	mutex       sync.Mutex
	element     Element
	mediaURL    string
	listeners   []listener
	initialized bool
	player      Player

	fullscreen atomic.Bool
	// bumped on every detach so handlers of a dropped element go inert
	generation atomic.Uint64
}

// NewController creates a controller. A nil registry uses DefaultRegistry
// and a nil orientation uses NoOrientation.
func NewController(registry *Registry, loader Loader, orientation Orientation) *Controller {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if orientation == nil {
		orientation = NoOrientation{}
	}
	return &Controller{
		registry:    registry,
		loader:      loader,
		orientation: orientation,
	}
}

// Attach binds the library to element playing mediaURL. Repeating the call
// with the same element and URL does nothing; a different element or URL
// detaches the previous one first.
func (c *Controller) Attach(ctx context.Context, element Element, mediaURL, thumbnailURL string) error {
	if element == nil {
		return fmt.Errorf("media element cannot be nil")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.element != element || c.mediaURL != mediaURL {
		c.detachLocked()
		c.element = element
		c.mediaURL = mediaURL
		element.SetSource(mediaURL)

		handler := c.fullscreenHandler(element, c.generation.Load())
		c.listeners = lo.Map(FullscreenEvents, func(event string, _ int) listener {
			return listener{event: event, id: element.AddEventListener(event, handler)}
		})
	}

	if c.initialized {
		return nil
	}

	lib, err := c.registry.Load(ctx, ScriptID, c.loader)
	if err != nil {
		return err
	}
	player, err := lib.Init(element, DefaultOptions(thumbnailURL))
	if err != nil {
		return fmt.Errorf("failed to initialize player: %w", err)
	}
	c.player = player
	c.initialized = true
	internal.LogDebug("Player attached to %s", mediaURL)
	return nil
}

// Detach removes the fullscreen listeners, destroys the player and resets
// the guard so the next Attach initializes again.
func (c *Controller) Detach() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.detachLocked()
}

// Player returns the current library instance, or nil
func (c *Controller) Player() Player {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.player
}

func (c *Controller) detachLocked() {
	if c.element == nil {
		return
	}
	for _, l := range c.listeners {
		c.element.RemoveEventListener(l.event, l.id)
	}
	if c.player != nil {
		if err := c.player.Destroy(); err != nil {
			internal.LogWarn("Failed to destroy player: %v", err)
		}
	}
	c.listeners = nil
	c.element = nil
	c.mediaURL = ""
	c.player = nil
	c.initialized = false
	c.generation.Add(1)
	c.fullscreen.Store(false)
}

// fullscreenHandler folds all fullscreen events into state transitions, so
// a browser firing both prefixed and standard events acts once. A handler
// outliving its attachment does nothing.
func (c *Controller) fullscreenHandler(element Element, generation uint64) Handler {
	return func(event string) {
		if c.generation.Load() != generation {
			return
		}
		now := element.IsFullscreen()
		if !c.fullscreen.CompareAndSwap(!now, now) {
			return
		}
		if now {
			if err := bestEffort(func() error { return c.orientation.Lock(OrientationLandscape) }); err != nil {
				internal.LogDebug("Orientation lock not supported: %v", err)
			}
			return
		}
		if err := bestEffort(c.orientation.Unlock); err != nil {
			internal.LogDebug("Orientation unlock failed: %v", err)
		}
	}
}

// bestEffort runs fn and reports a panic as an error
func bestEffort(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
