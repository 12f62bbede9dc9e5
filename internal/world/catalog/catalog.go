// Package catalog is a world provider backed by YAML bundles on disk. Bundles
// are addressed by the xxhash of their content and cached in a blob store.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/core/storage"
	"github.com/zeusync/offline/internal/core/world"
	"github.com/zeusync/offline/pkg/concurrent"
)

var (
	ErrInvalidBundle   = errors.New("invalid world bundle")
	ErrHashMismatch    = errors.New("downloaded content does not match its hash")
	ErrNotCached       = errors.New("world not in cache")
	ErrUnknownResource = errors.New("unknown world resource")
	ErrUnsupportedURL  = errors.New("unsupported asset url")
)

// hashWorkers bounds the bundles read concurrently while opening a catalog.
const hashWorkers = 4

var _ world.Provider = (*Catalog)(nil)

// Catalog is safe for concurrent use.
type Catalog struct {
	log       log.Log
	store     storage.Storage
	fetch     Fetcher
	assets    []world.Asset
	resources map[string]string
}

// Hash is the content hash used as cache key.
func Hash(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// New builds a catalog from an index. Entries without a hash get one computed
// from the content fetch returns for them.
func New(ctx context.Context, idx *Index, fetch Fetcher, store storage.Storage, l log.Log) (*Catalog, error) {
	if l == nil {
		l = log.NewNop()
	}
	c := &Catalog{
		log:       l.With(log.Tag("catalog")),
		store:     store,
		fetch:     fetch,
		resources: idx.Resources,
	}
	assets, err := concurrent.ParallelMap(ctx, idx.Assets, hashWorkers, func(ctx context.Context, e AssetEntry) (world.Asset, error) {
		a := e.asset()
		if a.Hash != "" {
			return a, nil
		}
		data, err := c.read(ctx, a.URL, nil)
		if err != nil {
			return a, fmt.Errorf("hash asset %s: %w", a.ID, err)
		}
		a.Hash = Hash(data)
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	c.assets = assets
	c.log.Debug("Catalog ready", log.Int("assets", len(c.assets)), log.Int("resources", len(c.resources)))
	return c, nil
}

// Open reads dir/catalog.yaml and serves its entries from dir.
func Open(ctx context.Context, dir string, store storage.Storage, l log.Log) (*Catalog, error) {
	f, err := os.Open(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	idx, err := LoadIndex(f)
	if err != nil {
		return nil, err
	}
	return New(ctx, idx, DirFetcher{Root: dir}, store, l)
}

func (c *Catalog) SearchAssets(ctx context.Context, q world.AssetQuery) ([]world.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []world.Asset
	for _, a := range c.assets {
		if !matches(a, q) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	c.log.Debug("Searched assets", log.String("query", q.Query), log.Int("found", len(out)))
	return out, nil
}

func (c *Catalog) HasInCache(hash string) bool {
	return c.store.Has(hash)
}

// DownloadToCache fetches url, checks it hashes to hash and caches it.
func (c *Catalog) DownloadToCache(ctx context.Context, url, hash string, progress func(float64)) error {
	if c.store.Has(hash) {
		report(progress, 1)
		return nil
	}
	data, err := c.read(ctx, url, progress)
	if err != nil {
		return err
	}
	if got := Hash(data); got != hash {
		return fmt.Errorf("%w: want %s, got %s", ErrHashMismatch, hash, got)
	}
	if err = c.store.Create(ctx, hash, data); err != nil && !errors.Is(err, storage.ErrExists) {
		return fmt.Errorf("cache %s: %w", hash, err)
	}
	report(progress, 1)
	c.log.Info("Downloaded world", log.String("url", url), log.String("hash", hash))
	return nil
}

func (c *Catalog) LoadFromCache(ctx context.Context, hash string, progress func(float64)) (world.Runtime, error) {
	data, err := c.store.Read(ctx, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, hash)
	}
	if err != nil {
		return nil, err
	}
	report(progress, 0.5)
	return c.build(data, progress)
}

func (c *Catalog) LoadFromResource(ctx context.Context, resource string, progress func(float64)) (world.Runtime, error) {
	url, ok := c.resources[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	data, err := c.read(ctx, url, func(p float64) { report(progress, p*0.5) })
	if err != nil {
		return nil, err
	}
	return c.build(data, progress)
}

func (c *Catalog) build(data []byte, progress func(float64)) (world.Runtime, error) {
	b, err := parseBundle(data)
	if err != nil {
		return nil, err
	}
	w := newWorld(b)
	report(progress, 1)
	c.log.Debug("Loaded world", log.String("world", b.Identifier().Ref()), log.Int("dimensions", w.DimensionCount()))
	return w, nil
}

func (c *Catalog) read(ctx context.Context, url string, progress func(float64)) ([]byte, error) {
	rc, size, err := c.fetch.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var r io.Reader = rc
	if progress != nil {
		r = &progressReader{r: rc, size: size, progress: progress}
	}
	var buf bytes.Buffer
	if size > 0 {
		buf.Grow(int(size))
	}
	if _, err = io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return buf.Bytes(), nil
}

func report(progress func(float64), p float64) {
	if progress != nil {
		progress(p)
	}
}
