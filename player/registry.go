package player

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"teraplay/internal"
)

// ScriptID identifies the playback library in a Registry
const ScriptID = "fluid-player-script"

// Loader produces a Library, typically by locating or fetching it
type Loader interface {
	Load(ctx context.Context) (Library, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context) (Library, error)

// Load calls f(ctx)
func (f LoaderFunc) Load(ctx context.Context) (Library, error) {
	return f(ctx)
}

// Registry loads each library once per process. Concurrent loads of the same
// ID share one call and a failed load may be retried.
type Registry struct {
	group  singleflight.Group
	mutex  sync.RWMutex
	loaded map[string]Library
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{loaded: make(map[string]Library)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Load returns the library registered under id, loading it with loader the
// first time.
func (r *Registry) Load(ctx context.Context, id string, loader Loader) (Library, error) {
	if lib, ok := r.lookup(id); ok {
		return lib, nil
	}

	v, err, shared := r.group.Do(id, func() (interface{}, error) {
		if lib, ok := r.lookup(id); ok {
			return lib, nil
		}
		internal.LogDebug("Loading player library %s", id)
		lib, err := loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		if lib == nil {
			return nil, fmt.Errorf("loader for %s returned no library", id)
		}
		r.mutex.Lock()
		r.loaded[id] = lib
		r.mutex.Unlock()
		return lib, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", id, err)
	}
	if shared {
		internal.LogDebug("Player library %s load was shared", id)
	}
	return v.(Library), nil
}

// Loaded reports whether id has been loaded
func (r *Registry) Loaded(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

func (r *Registry) lookup(id string) (Library, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	lib, ok := r.loaded[id]
	return lib, ok
}
