// Package desktop defines the input/display driver the action executor
// drives, plus an X11 implementation built on xdotool.
package desktop

import "context"

// Driver owns the single physical display and input device. Calls are made
// from one goroutine at a time; implementations need no locking.
type Driver interface {
	// Screenshot returns the current display as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	TypeText(ctx context.Context, text string) error
	// PressKeys presses keys together (a chord when len(keys) > 1).
	// Key names are already normalized (see action.NormalizeKey).
	PressKeys(ctx context.Context, keys []string) error
	LeftClick(ctx context.Context) error
	MoveMouse(ctx context.Context, x, y int) error
}

// Size is a display resolution in pixels.
type Size struct {
	Width  int
	Height int
}
