package geostore

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
)

func TestReadAndExists(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/geojson/brantas/q100.geojson", []byte(`{"type":"FeatureCollection"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := NewWithFs(mem)

	b, err := store.Read("geojson/brantas/q100.geojson")
	if err != nil || string(b) != `{"type":"FeatureCollection"}` {
		t.Fatalf("unexpected read %q %v", b, err)
	}
	if !store.Exists("geojson/brantas/q100.geojson") {
		t.Fatalf("expected file to exist")
	}
	if store.Exists("geojson/brantas") {
		t.Fatalf("directories are not files")
	}
	if _, err := store.Read("geojson/missing.geojson"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Read(""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty path, got %v", err)
	}
}

func TestPathsStayUnderRoot(t *testing.T) {
	mem := afero.NewMemMapFs()
	_ = afero.WriteFile(mem, "/root/layers/a.geojson", []byte("{}"), 0o644)
	_ = afero.WriteFile(mem, "/secret.txt", []byte("x"), 0o644)
	store := NewWithFs(afero.NewBasePathFs(mem, "/root"))

	if _, err := store.Read("../secret.txt"); err == nil {
		t.Fatalf("expected traversal to be contained")
	}
	if _, err := store.Read("layers/../layers/a.geojson"); err != nil {
		t.Fatalf("expected cleaned path to resolve: %v", err)
	}
}
