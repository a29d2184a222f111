package filestore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/samirrijal/geophotos/internal/core/domain"
)

func newMemStore(t *testing.T) (*MetadataStore, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	d, err := NewDirectory(mem, "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewMetadataStore(d, "")
	if err != nil {
		t.Fatal(err)
	}
	return s, mem
}

func TestMetadataStore_ListMissingFile(t *testing.T) {
	s, mem := newMemStore(t)
	photos, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if photos == nil || len(photos) != 0 {
		t.Errorf("expected empty list, got %#v", photos)
	}
	if ok, _ := afero.Exists(mem, s.Path()); ok {
		t.Error("listing must not create the metadata file")
	}
}

func TestMetadataStore_AppendCreatesFile(t *testing.T) {
	s, mem := newMemStore(t)
	err := s.Append(context.Background(), domain.Photo{Filename: "a.jpg", Latitude: "1.0", Longitude: "2.0"})
	if err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(mem, "/uploads/photos.json")
	if err != nil {
		t.Fatalf("expected photos.json: %v", err)
	}
	want := `[{"filename":"a.jpg","latitude":"1.0","longitude":"2.0"}]`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
	if ok, _ := afero.Exists(mem, "/uploads/photos.json.tmp"); ok {
		t.Error("temp file left behind")
	}
}

func TestMetadataStore_AppendKeepsOrderAndDuplicates(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()
	for _, name := range []string{"a.jpg", "b.jpg", "a.jpg"} {
		if err := s.Append(ctx, domain.Photo{Filename: name, Latitude: "1", Longitude: "2"}); err != nil {
			t.Fatal(err)
		}
	}
	photos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(photos))
	for i, p := range photos {
		got[i] = p.Filename
	}
	if strings.Join(got, ",") != "a.jpg,b.jpg,a.jpg" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestMetadataStore_ReadsExistingFile(t *testing.T) {
	s, mem := newMemStore(t)
	existing := `[{"filename": "old.jpg", "latitude": "10", "longitude": "20"}]`
	if err := afero.WriteFile(mem, s.Path(), []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(context.Background(), domain.Photo{Filename: "new.jpg", Latitude: "1", Longitude: "2"}); err != nil {
		t.Fatal(err)
	}
	photos, _ := s.List(context.Background())
	if len(photos) != 2 || photos[0].Filename != "old.jpg" || photos[1].Filename != "new.jpg" {
		t.Errorf("unexpected photos %+v", photos)
	}
}

func TestMetadataStore_CorruptFile(t *testing.T) {
	s, mem := newMemStore(t)
	if err := afero.WriteFile(mem, s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(context.Background()); err == nil {
		t.Error("expected decode error")
	}
	if err := s.Append(context.Background(), domain.Photo{Filename: "a.jpg", Latitude: "1", Longitude: "2"}); err == nil {
		t.Error("expected append to fail on corrupt file")
	}
	data, _ := afero.ReadFile(mem, s.Path())
	if string(data) != "{not json" {
		t.Error("corrupt file must be left untouched")
	}
}

func TestMetadataStore_ConcurrentAppendsKeepEveryRecord(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := domain.Photo{Filename: fmt.Sprintf("p%02d.jpg", i), Latitude: "1", Longitude: "2"}
			if err := s.Append(ctx, p); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	photos, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != n {
		t.Fatalf("expected %d records, got %d", n, len(photos))
	}
	seen := make(map[string]bool)
	for _, p := range photos {
		seen[p.Filename] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct records, got %d", n, len(seen))
	}
}
