package filestore

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func readAll(t *testing.T, d *Directory, name string) string {
	t.Helper()
	rc, _, err := d.Open(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNewDirectory_CreatesAndReuses(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	if _, err := NewOSDirectory(dir); err != nil {
		t.Fatalf("create: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
	if _, err := NewOSDirectory(dir); err != nil {
		t.Fatalf("existing directory must not be an error: %v", err)
	}
}

func TestDirectory_SaveOverwrites(t *testing.T) {
	d, err := NewOSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := d.Save(ctx, "a.jpg", strings.NewReader("first-longer")); err != nil {
		t.Fatal(err)
	}
	n, err := d.Save(ctx, "a.jpg", strings.NewReader("second"))
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("expected 6 bytes, got %d", n)
	}
	if got := readAll(t, d, "a.jpg"); got != "second" {
		t.Errorf("expected second upload's bytes, got %q", got)
	}
}

func TestDirectory_ResolveRejectsTraversal(t *testing.T) {
	d, err := NewDirectory(afero.NewMemMapFs(), "/srv/uploads")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", ".", "..", "../secret", "a/../../secret", "sub/../.."} {
		if _, err := d.Resolve(name); !errors.Is(err, ErrOutsideDirectory) {
			t.Errorf("Resolve(%q): expected ErrOutsideDirectory, got %v", name, err)
		}
	}
	p, err := d.Resolve("sub/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join("/srv/uploads", "sub", "a.jpg") {
		t.Errorf("unexpected path %s", p)
	}
}

func TestDirectory_OpenMissingAndOutside(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "secret.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewOSDirectory(filepath.Join(base, "uploads"))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"missing.jpg", "../secret.txt"} {
		if _, _, err := d.Open(name); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Open(%q): expected not-exist, got %v", name, err)
		}
	}
}

func TestDirectory_OpenRejectsEscapingSymlink(t *testing.T) {
	base := t.TempDir()
	secret := filepath.Join(base, "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewOSDirectory(filepath.Join(base, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(secret, filepath.Join(d.Root(), "link.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if _, _, err := d.Open("link.jpg"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected escaping symlink to be hidden, got %v", err)
	}
}

func TestDirectory_OpenFollowsInternalSymlink(t *testing.T) {
	d, err := NewOSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Save(context.Background(), "a.jpg", strings.NewReader("pixels")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(d.Root(), "a.jpg"), filepath.Join(d.Root(), "b.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if got := readAll(t, d, "b.jpg"); got != "pixels" {
		t.Errorf("expected pixels, got %q", got)
	}
}

func TestDirectory_OpenDirectoryIsNotFound(t *testing.T) {
	d, err := NewOSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(d.Root(), "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := d.Open("sub"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist for directory, got %v", err)
	}
}

func TestDirectory_Stat(t *testing.T) {
	d, err := NewOSDirectory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Save(context.Background(), "a.jpg", strings.NewReader("pixels")); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(d.Root(), "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	info, err := d.Stat("a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 6 {
		t.Errorf("expected size 6, got %d", info.Size())
	}
	for _, name := range []string{"missing.jpg", "sub", "../a.jpg"} {
		if _, err := d.Stat(name); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("Stat(%q): expected not-exist, got %v", name, err)
		}
	}
}

func TestDirectory_Writable(t *testing.T) {
	d, err := NewDirectory(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Writable(); err != nil {
		t.Errorf("expected writable: %v", err)
	}
	ro, err := NewDirectory(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/")
	if err == nil {
		if err := ro.Writable(); err == nil {
			t.Error("expected read-only fs to fail the probe")
		}
	}
}
