package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DirPermissions is used for the staging directory and its parents.
	DirPermissions os.FileMode = 0o755
	// FilePermissions is used for every staged file.
	FilePermissions os.FileMode = 0o644
)

var (
	// errRootRequired is returned when a workspace is created without a directory.
	errRootRequired = errors.New("workspace directory must be provided")
	// errBadName is returned for staged file names that are not plain base names.
	errBadName = errors.New("file name must be a plain base name")
)

// Workspace is a staging directory that holds the files of one package.
type Workspace interface {
	// Root returns the staging directory path.
	Root() string
	// Reset removes the directory tree and recreates it empty.
	Reset(ctx context.Context) error
	// WriteFile stores data under name and returns the full path.
	WriteFile(ctx context.Context, name string, data []byte) (string, error)
	// CopyFile copies src into the workspace under its base name and returns the full path.
	CopyFile(ctx context.Context, src string) (string, error)
}

// Directory implements Workspace on the local filesystem.
type Directory struct {
	root string
}

// NewDirectory returns a Workspace rooted at root. Nothing is touched on disk until Reset.
func NewDirectory(root string) (*Directory, error) {
	if root == "" {
		return nil, errRootRequired
	}

	return &Directory{root: filepath.Clean(root)}, nil
}

// Root returns the staging directory path.
func (d *Directory) Root() string {
	return d.root
}

// Reset removes the staging tree and recreates it, parents included.
func (d *Directory) Reset(_ context.Context) error {
	if err := os.RemoveAll(d.root); err != nil {
		return fmt.Errorf("remove %s: %w", d.root, err)
	}

	if err := os.MkdirAll(d.root, DirPermissions); err != nil {
		return fmt.Errorf("create %s: %w", d.root, err)
	}

	return nil
}

// WriteFile stores data as a new file inside the workspace.
func (d *Directory) WriteFile(_ context.Context, name string, data []byte) (string, error) {
	path, err := d.pathFor(name)
	if err != nil {
		return "", err
	}

	if err = os.WriteFile(path, data, FilePermissions); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}

// CopyFile copies src into the workspace, keeping its base name.
func (d *Directory) CopyFile(_ context.Context, src string) (string, error) {
	dst, err := d.pathFor(filepath.Base(src))
	if err != nil {
		return "", err
	}

	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}

	// Read-only handle.
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FilePermissions)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	if err = out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}

	return dst, nil
}

// Contains reports whether path lies inside the workspace directory.
// Symlinks are resolved on both sides, so a link pointing into the workspace counts as inside.
func (d *Directory) Contains(path string) (bool, error) {
	root, err := resolvePath(d.root)
	if err != nil {
		return false, err
	}

	target, err := resolvePath(path)
	if err != nil {
		return false, err
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false, nil
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// resolvePath returns the absolute path with symlinks evaluated.
// Missing trailing components are kept as they are, since the workspace may not exist yet.
func resolvePath(path string) (string, error) {
	current, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var missing []string

	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("resolve %s: %w", current, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return filepath.Join(append([]string{current}, missing...)...), nil
		}

		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}
}

// pathFor joins name to the root after making sure it cannot escape it.
func (d *Directory) pathFor(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("%q: %w", name, errBadName)
	}

	return filepath.Join(d.root, name), nil
}
