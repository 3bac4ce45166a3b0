package record

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/seatplay/internal/model"
)

// RecordsPrefix is the URL path under which records are served.
const RecordsPrefix = "/simulation_data/simulations/"

const maxRecordBytes = 64 << 20

// Source retrieves the raw document of a named record. Names are slash
// separated paths relative to the record store, e.g. "9_seats_simulations/5-1.json".
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Open returns an HTTPSource for http(s) locations and a DirSource otherwise.
func Open(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{BaseURL: location, Client: &http.Client{Timeout: timeout}}
	}
	return DirSource{Root: location}
}

// Load fetches and normalizes a record. Any failure is reported as a
// MalformedError.
func Load(ctx context.Context, src Source, name string) (model.Record, error) {
	raw, err := src.Fetch(ctx, name)
	if err != nil {
		return model.Record{}, malformed(name, err)
	}
	return Normalize(name, raw)
}

// CleanName validates a record name and returns its canonical form.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", errors.New("empty record name")
	}
	cleaned := path.Clean("/" + name)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(name, "/") {
		return "", fmt.Errorf("invalid record name %q", name)
	}
	return cleaned, nil
}

// DirSource reads records from a directory tree. Files ending in .gz are
// decompressed; a name without the suffix also resolves to "<name>.gz".
type DirSource struct {
	Root string
}

func (s DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(s.Root, filepath.FromSlash(cleaned))
	if _, err := os.Stat(full); errors.Is(err, os.ErrNotExist) && !strings.HasSuffix(full, ".gz") {
		if _, gzErr := os.Stat(full + ".gz"); gzErr == nil {
			full += ".gz"
		}
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort close.
		_ = f.Close()
	}()
	var r io.Reader = f
	if strings.HasSuffix(full, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", cleaned, err)
		}
		defer func() {
			// Best-effort gzip close.
			_ = gz.Close()
		}()
		r = gz
	}
	data, err := io.ReadAll(io.LimitReader(r, maxRecordBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cleaned, err)
	}
	return data, nil
}

// HTTPSource reads records from a server exposing RecordsPrefix.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *HTTPSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	cleaned, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	segments := strings.Split(cleaned, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	target := strings.TrimRight(s.BaseURL, "/") + RecordsPrefix + strings.Join(segments, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Best-effort body close.
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", cleaned, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return nil, fmt.Errorf("fetch %s: response is not JSON (content type %q)", cleaned, ct)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cleaned, err)
	}
	return data, nil
}
