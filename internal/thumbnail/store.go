// Package thumbnail caches card artwork on local disk.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-scout/internal/errs"
)

// DefaultParallelism bounds FetchAll when no limit is given.
const DefaultParallelism = 8

// Store fetches images over HTTP and keeps them in dir, keyed by the
// basename of the URL path. Cached content is never refreshed.
type Store struct {
	dir    string
	client *http.Client
	logger *slog.Logger
}

func NewStore(dir string, client *http.Client, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{dir: dir, client: client, logger: logger}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the cache file for rawURL.
func (s *Store) Path(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return filepath.Join(s.dir, name), nil
}

// Fetch returns the bytes behind rawURL, downloading them on first use.
// Concurrent first fetches of one name may both download; the file is
// replaced whole, so readers never see a partial write.
func (s *Store) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	p, err := s.Path(rawURL)
	if err != nil {
		return nil, err
	}
	if b, err := os.ReadFile(p); err == nil {
		return b, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	b, err := s.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "saving url to path", "url", rawURL, "path", p)
	if err := writeAtomic(s.dir, p, b); err != nil {
		// The bytes are good even if the cache write is not.
		s.logger.WarnContext(ctx, "cache write failed", "path", p, "error", err)
	}
	return b, nil
}

// FetchAll fetches urls with at most limit downloads in flight. Results
// line up with urls; a URL listed twice is fetched once.
func (s *Store) FetchAll(ctx context.Context, urls []string, limit int) ([][]byte, error) {
	if limit <= 0 {
		limit = DefaultParallelism
	}
	distinct := make(map[string][]byte, len(urls))
	order := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := distinct[u]; !ok {
			distinct[u] = nil
			order = append(order, u)
		}
	}

	got := make([][]byte, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range order {
		g.Go(func() error {
			b, err := s.Fetch(gctx, u)
			if err != nil {
				return err
			}
			got[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, u := range order {
		distinct[u] = got[i]
	}

	out := make([][]byte, len(urls))
	for i, u := range urls {
		out[i] = distinct[u]
	}
	return out, nil
}

// Clean removes every cached file and reports how many were deleted.
func (s *Store) Clean() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	var n int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return n, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		n++
	}
	s.logger.Info("thumbnail cache cleaned", "dir", s.dir, "removed", n)
	return n, nil
}

func (s *Store) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", errs.ErrTransport, rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", errs.ErrTransport, rawURL, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", errs.ErrTransport, rawURL, err)
	}
	return b, nil
}

// writeAtomic writes b to a temp file in dir and renames it over p.
func writeAtomic(dir, p string, b []byte) error {
	f, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
