package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Workspace is a flat directory of named artifacts owned by one pipeline run
type Workspace struct {
	ID  string
	dir string
}

// NewWorkspace creates a fresh run directory under root. An empty root uses
// the OS temp directory.
func NewWorkspace(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work root: %w", err)
	}

	id := uuid.New().String()
	dir, err := os.MkdirTemp(root, "dub-"+id+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{ID: id, dir: dir}, nil
}

// Dir returns the directory commands run in
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of a named artifact
func (w *Workspace) Path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.dir, name), nil
}

// WriteFile stores data under name, replacing any previous content
func (w *Workspace) WriteFile(name string, data []byte) error {
	path, err := w.Path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// WriteFrom streams r into name and returns the number of bytes written
func (w *Workspace) WriteFrom(name string, r io.Reader) (int64, error) {
	path, err := w.Path(name)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", name, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", name, err)
	}
	return n, nil
}

// ReadFile returns the content stored under name
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	path, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Open returns a reader over the artifact stored under name
func (w *Workspace) Open(name string) (*os.File, error) {
	path, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Exists reports whether name has been written
func (w *Workspace) Exists(name string) bool {
	path, err := w.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Close removes the workspace and everything in it. Safe to call twice.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := os.RemoveAll(w.dir)
	w.dir = ""
	return err
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
