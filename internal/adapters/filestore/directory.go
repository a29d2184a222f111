package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrOutsideDirectory is returned for names that resolve outside the storage
// directory.
var ErrOutsideDirectory = errors.New("path escapes storage directory")

// Directory is the storage directory holding uploaded photos and the
// metadata file. It implements ports.BlobStore.
type Directory struct {
	fs   afero.Fs
	root string
	// real is the symlink-free root; empty when fs is not the OS filesystem.
	real string
}

// NewDirectory creates dir on fs if needed. An existing directory is fine.
func NewDirectory(fsys afero.Fs, dir string) (*Directory, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	d := &Directory{fs: fsys, root: root}
	if _, ok := fsys.(*afero.OsFs); ok {
		real, err := filepath.EvalSymlinks(root)
		if err != nil {
			return nil, fmt.Errorf("resolve storage dir: %w", err)
		}
		d.real = real
	}
	return d, nil
}

// NewOSDirectory is NewDirectory on the host filesystem.
func NewOSDirectory(dir string) (*Directory, error) {
	return NewDirectory(afero.NewOsFs(), dir)
}

// Root returns the absolute directory path.
func (d *Directory) Root() string { return d.root }

// Fs exposes the underlying filesystem.
func (d *Directory) Fs() afero.Fs { return d.fs }

// Resolve joins name onto the directory and rejects results that leave it.
func (d *Directory) Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrOutsideDirectory
	}
	p := filepath.Join(d.root, filepath.FromSlash(name))
	if !within(d.root, p) {
		return "", ErrOutsideDirectory
	}
	return p, nil
}

// resolveExisting is Resolve plus a symlink check: the target must still be
// under the real root after all links are followed.
func (d *Directory) resolveExisting(name string) (string, error) {
	p, err := d.Resolve(name)
	if err != nil {
		return "", err
	}
	if d.real == "" {
		return p, nil
	}
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", err
	}
	if !within(d.real, real) {
		return "", ErrOutsideDirectory
	}
	return real, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// Save writes r to name, truncating any existing file of that name.
func (d *Directory) Save(_ context.Context, name string, r io.Reader) (int64, error) {
	p, err := d.Resolve(name)
	if err != nil {
		return 0, err
	}

	f, err := d.fs.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Stat describes a regular file in the directory. Directories, missing
// files, and anything outside the root report fs.ErrNotExist.
func (d *Directory) Stat(name string) (fs.FileInfo, error) {
	_, info, err := d.stat(name)
	return info, err
}

func (d *Directory) stat(name string) (string, fs.FileInfo, error) {
	p, err := d.resolveExisting(name)
	if err != nil {
		if errors.Is(err, ErrOutsideDirectory) {
			return "", nil, fmt.Errorf("%w: %s", fs.ErrNotExist, err)
		}
		return "", nil, err
	}

	info, err := d.fs.Stat(p)
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fs.ErrNotExist
	}
	return p, info, nil
}

// Open returns a regular file from the directory with its size, under the
// same rules as Stat.
func (d *Directory) Open(name string) (io.ReadCloser, int64, error) {
	p, info, err := d.stat(name)
	if err != nil {
		return nil, 0, err
	}

	f, err := d.fs.Open(p)
	if err != nil {
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Writable checks that a file can be created in the directory.
func (d *Directory) Writable() error {
	f, err := afero.TempFile(d.fs, d.root, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return d.fs.Remove(name)
}
