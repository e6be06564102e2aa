package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
)

// Screenshot captures the viewport as PNG.
func (m *Manager) Screenshot(ctx context.Context) ([]byte, error) {
	page, err := m.current(ctx)
	if err != nil {
		return nil, err
	}
	return page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// TypeText inserts text at the focused element.
func (m *Manager) TypeText(ctx context.Context, text string) error {
	page, err := m.current(ctx)
	if err != nil {
		return err
	}
	if err := page.InsertText(text); err != nil {
		return fmt.Errorf("insert text: %w", err)
	}
	return nil
}

// PressKeys presses a key or chord given as canonical key names. Modifiers
// are held while the final key is typed, then released.
func (m *Manager) PressKeys(ctx context.Context, keys []string) error {
	mods, last, err := chord(keys)
	if err != nil {
		return err
	}
	page, err := m.current(ctx)
	if err != nil {
		return err
	}

	ka := page.KeyActions()
	if len(mods) > 0 {
		ka = ka.Press(mods...)
	}
	if err := ka.Type(last).Do(); err != nil {
		return fmt.Errorf("press keys: %w", err)
	}
	return nil
}

// LeftClick clicks at the current pointer position.
func (m *Manager) LeftClick(ctx context.Context) error {
	page, err := m.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// MoveMouse moves the pointer to viewport coordinates.
func (m *Manager) MoveMouse(ctx context.Context, x, y int) error {
	page, err := m.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	return nil
}
