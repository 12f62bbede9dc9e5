package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher opens the content referenced by an asset URL; size is -1 when unknown.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (rc io.ReadCloser, size int64, err error)
}

// DirFetcher resolves "file://" URLs and paths relative to Root.
type DirFetcher struct {
	Root string
}

func (f DirFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	path, err := f.resolve(url)
	if err != nil {
		return nil, 0, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("fetch %s: %w", url, err)
	}
	return file, info.Size(), nil
}

func (f DirFetcher) resolve(url string) (string, error) {
	if abs, ok := strings.CutPrefix(url, "file://"); ok {
		return filepath.Clean(abs), nil
	}
	if strings.Contains(url, "://") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedURL, url)
	}
	if !filepath.IsLocal(url) {
		return "", fmt.Errorf("%w: %s escapes the catalog", ErrUnsupportedURL, url)
	}
	return filepath.Join(f.Root, url), nil
}

// progressReader reports the fraction of size read so far.
type progressReader struct {
	r        io.Reader
	size     int64
	read     int64
	progress func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if n > 0 && p.size > 0 {
		p.progress(min(float64(p.read)/float64(p.size), 1))
	}
	return n, err
}
