// Package source loads Node-RED workspaces and reports when they change.
//
// File reads the editor's flows document from disk on every Load. Static
// serves a workspace held in memory. Watcher follows a flows file with
// fsnotify and publishes flows.changed on the event bus.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/randalmurphal/flowlens/pkg/flowlens"
)

// File loads the workspace from a flows file.
type File struct {
	path   string
	logger *slog.Logger
}

// FileOption configures a File.
type FileOption func(*File)

// WithFileLogger sets the logger used to report a missing flows file.
// Default: slog.Default()
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFile creates a source for the flows file at path.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the flows file path.
func (f *File) Path() string {
	return f.path
}

// Load reads and parses the flows file. A missing or empty file is an
// empty workspace; an unreadable or malformed one is an error.
func (f *File) Load(ctx context.Context) (flowlens.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("flows file not found, analyzing empty workspace",
			slog.String("path", f.path),
		)
		return flowlens.Workspace{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read flows file: %w", err)
	}
	ws, err := flowlens.ParseWorkspace(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return ws, nil
}

// Static serves an in-memory workspace. It is safe for concurrent use.
type Static struct {
	mu sync.RWMutex
	ws flowlens.Workspace
}

// NewStatic creates a source serving ws.
func NewStatic(ws flowlens.Workspace) *Static {
	return &Static{ws: ws}
}

// Load returns the current workspace.
func (s *Static) Load(ctx context.Context) (flowlens.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ws, nil
}

// Set replaces the workspace.
func (s *Static) Set(ws flowlens.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws = ws
}
