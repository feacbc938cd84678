// Package player attaches a playback library to a media element and keeps
// the screen orientation in step with fullscreen changes.
package player

// Options are the layout controls handed to the playback library
type Options struct {
	FillToContainer     bool
	PrimaryColor        string
	PosterImage         string
	AutoPlay            bool
	Mute                bool
	AllowTheatre        bool
	PlaybackRateEnabled bool
}

// AccentColor is the player's primary control color
const AccentColor = "#8b5cf6"

// DefaultOptions returns the layout used for every attachment, with the
// thumbnail as poster.
func DefaultOptions(thumbnailURL string) Options {
	return Options{
		FillToContainer:     true,
		PrimaryColor:        AccentColor,
		PosterImage:         thumbnailURL,
		AutoPlay:            false,
		Mute:                false,
		AllowTheatre:        true,
		PlaybackRateEnabled: true,
	}
}

// Library is a loaded playback library
type Library interface {
	// Init takes over element and starts presenting its source
	Init(element Element, opts Options) (Player, error)
}

// Player is one library instance bound to an element
type Player interface {
	// Done is closed once playback has ended or the player was destroyed
	Done() <-chan struct{}
	Destroy() error
}
