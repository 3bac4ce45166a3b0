package record

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const fiveElements = `[
	{"test_name": "t", "test_scale": "3*3->4"},
	{"time": "7:00"}, {"time": "7:15"}, {"time": "7:30"}, {"time": "7:45"}
]`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadFromDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "9_seats_simulations", "4-1.json"), []byte(fiveElements))
	rec, err := Load(context.Background(), DirSource{Root: root}, "9_seats_simulations/4-1.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Config == nil || len(rec.Steps) != 4 {
		t.Fatalf("expected config and 4 steps, got config=%v steps=%d", rec.Config, len(rec.Steps))
	}
	if rec.Name != "9_seats_simulations/4-1.json" {
		t.Fatalf("unexpected name %q", rec.Name)
	}
}

func TestLoadGzipRecord(t *testing.T) {
	root := t.TempDir()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(fiveElements)); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	writeFile(t, filepath.Join(root, "9_seats_simulations", "4-2.json.gz"), buf.Bytes())

	src := DirSource{Root: root}
	for _, name := range []string{"9_seats_simulations/4-2.json.gz", "9_seats_simulations/4-2.json"} {
		rec, err := Load(context.Background(), src, name)
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		if len(rec.Steps) != 4 {
			t.Fatalf("%s: expected 4 steps, got %d", name, len(rec.Steps))
		}
	}
}

func TestDirSourceRejectsEscapingNames(t *testing.T) {
	src := DirSource{Root: t.TempDir()}
	for _, name := range []string{"../secret.json", "a/../../b.json", ""} {
		if _, err := Load(context.Background(), src, name); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("%q: expected malformed error, got %v", name, err)
		}
	}
}

func TestLoadMissingFileIsMalformed(t *testing.T) {
	_, err := Load(context.Background(), DirSource{Root: t.TempDir()}, "missing.json")
	if !errors.Is(err, ErrMalformedRecord) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected malformed wrapping not-exist, got %v", err)
	}
}

func TestHTTPSourceFetchesJSON(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fiveElements))
	}))
	defer srv.Close()

	src := Open(srv.URL, time.Second)
	rec, err := Load(context.Background(), src, "9_seats_simulations/4-1.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotPath != "/simulation_data/simulations/9_seats_simulations/4-1.json" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if len(rec.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(rec.Steps))
	}
}

func TestHTTPSourceRejectsMarkup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`[{"time": "7:00"}]`))
	}))
	defer srv.Close()

	_, err := Load(context.Background(), Open(srv.URL, time.Second), "a.json")
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected malformed error for markup response, got %v", err)
	}
}

func TestHTTPSourceRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	}))
	defer srv.Close()

	_, err := Load(context.Background(), Open(srv.URL, time.Second), "a.json")
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected malformed error for 404, got %v", err)
	}
}

func TestOpenPicksSource(t *testing.T) {
	if _, ok := Open("/tmp/records", time.Second).(DirSource); !ok {
		t.Fatalf("expected directory source")
	}
	if _, ok := Open("https://example.com", time.Second).(*HTTPSource); !ok {
		t.Fatalf("expected http source")
	}
}
