// Package archive stores diagnostic artifacts (screenshots) written as a
// side effect of the action loop. Nothing here is read back.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Sink persists a named blob.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
}

// DirSink writes blobs as files under a local directory.
type DirSink struct {
	Dir string
}

// NewDirSink creates the directory if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &DirSink{Dir: dir}, nil
}

func (d *DirSink) Put(_ context.Context, name string, data []byte, _ string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("archive: invalid name %q", name)
	}
	return os.WriteFile(filepath.Join(d.Dir, name), data, 0644)
}

// Multi fans a blob out to several sinks, joining their errors.
type Multi []Sink

func (m Multi) Put(ctx context.Context, name string, data []byte, contentType string) error {
	var errs []error
	for _, s := range m {
		if err := s.Put(ctx, name, data, contentType); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
