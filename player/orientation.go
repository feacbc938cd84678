package player

import "errors"

// OrientationLandscape is the lock requested while in fullscreen
const OrientationLandscape = "landscape"

// ErrOrientationUnsupported is returned where the screen cannot be locked
var ErrOrientationUnsupported = errors.New("screen orientation lock not supported")

// Orientation locks the screen orientation. It is an optional capability:
// callers treat every error as non-fatal.
type Orientation interface {
	Lock(orientation string) error
	Unlock() error
}

// NoOrientation is the Orientation of platforms without a lockable screen
type NoOrientation struct{}

func (NoOrientation) Lock(string) error {
	return ErrOrientationUnsupported
}

func (NoOrientation) Unlock() error {
	return ErrOrientationUnsupported
}
