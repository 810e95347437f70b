// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/webstart/lib/bundle"
	"github.com/bureau-foundation/webstart/lib/clock"
	"github.com/bureau-foundation/webstart/lib/codec"
)

const (
	entriesDirectory = "entries"
	dataSuffix       = ".data"
	metadataSuffix   = ".meta"
)

// CacheConfig holds the parameters for NewCache.
type CacheConfig struct {
	// Path is the cache directory. It is created if missing.
	Path string

	// Namespace separates entries whose locations are relative to
	// different codebases. Typically the bundle codebase URL.
	Namespace string

	Compression Compression

	// MaxSize bounds the decompressed size an entry's metadata may
	// claim. Entries above it are evicted. Zero or negative is
	// unbounded.
	MaxSize int64

	// Upstream is called on a miss. A nil Upstream makes the cache
	// read-only: misses fail with ErrNotFound.
	Upstream Fetcher

	Clock  clock.Clock
	Logger *slog.Logger
}

// Cache is a Fetcher that serves resources from a local directory
// and falls through to an upstream Fetcher on a miss. It is safe for
// concurrent use; concurrent misses for one resource each fetch (the
// loader prevents that) and the last writer wins.
type Cache struct {
	root        string
	namespace   string
	compression Compression
	maxSize     int64
	upstream    Fetcher
	clock       clock.Clock
	logger      *slog.Logger
}

// CacheEntry describes one stored resource. It is also the on-disk
// metadata sidecar.
type CacheEntry struct {
	Key        string    `cbor:"-"`
	Namespace  string    `cbor:"namespace"`
	Identity   string    `cbor:"identity"`
	Location   string    `cbor:"location"`
	Digest     string    `cbor:"digest"`
	Size       int64     `cbor:"size"`
	StoredSize int64     `cbor:"stored_size"`
	Encoding   string    `cbor:"encoding"`
	StoredAt   time.Time `cbor:"stored_at"`
}

// NewCache creates the cache directory if needed and returns a Cache.
func NewCache(config CacheConfig) (*Cache, error) {
	if config.Path == "" {
		return nil, errors.New("fetch: cache path is required")
	}
	if !config.Compression.Valid() {
		return nil, fmt.Errorf("fetch: invalid cache compression %d", uint8(config.Compression))
	}
	if err := os.MkdirAll(filepath.Join(config.Path, entriesDirectory), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		root:        config.Path,
		namespace:   config.Namespace,
		compression: config.Compression,
		maxSize:     config.MaxSize,
		upstream:    config.Upstream,
		clock:       clock.OrReal(config.Clock),
		logger:      logger,
	}, nil
}

// key derives the entry file name for a resource.
func (c *Cache) key(resource bundle.Resource) string {
	hasher := blake3.New()
	hasher.Write([]byte(c.namespace))
	hasher.Write([]byte{0})
	hasher.Write([]byte(resource.FetchLocation()))
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *Cache) paths(key string) (data, metadata string) {
	base := filepath.Join(c.root, entriesDirectory, key)
	return base + dataSuffix, base + metadataSuffix
}

// Fetch returns the cached bytes for resource, or fetches them from
// the upstream Fetcher and stores them. A failure to store is logged
// and does not fail the fetch.
func (c *Cache) Fetch(ctx context.Context, resource bundle.Resource) ([]byte, error) {
	if data, ok := c.Lookup(resource); ok {
		return data, nil
	}
	if c.upstream == nil {
		return nil, &FetchError{
			Resource: resource.Identity,
			Cause:    fmt.Errorf("%w: not in cache and no upstream configured", ErrNotFound),
		}
	}

	data, err := c.upstream.Fetch(ctx, resource)
	if err != nil {
		return nil, Wrap(resource, err)
	}
	if err := c.Store(resource, data); err != nil {
		c.logger.Warn("caching resource failed",
			"resource", resource.Identity,
			"error", err,
		)
	}
	return data, nil
}

// Lookup returns the cached bytes for resource without contacting
// the upstream. An entry that fails its integrity check, or whose
// digest differs from the resource's declared digest, is evicted and
// reported as a miss.
func (c *Cache) Lookup(resource bundle.Resource) ([]byte, bool) {
	key := c.key(resource)
	dataPath, metadataPath := c.paths(key)

	rawMetadata, err := os.ReadFile(metadataPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("reading cache metadata failed", "resource", resource.Identity, "error", err)
		}
		return nil, false
	}

	data, err := c.readEntry(rawMetadata, dataPath)
	if err == nil && resource.Digest != "" && !strings.EqualFold(Digest(data), resource.Digest) {
		err = fmt.Errorf("cached digest does not match declared digest %s", resource.Digest)
	}
	if err != nil {
		c.logger.Warn("evicting unusable cache entry",
			"resource", resource.Identity,
			"key", key,
			"error", err,
		)
		c.remove(key)
		return nil, false
	}

	c.logger.Debug("cache hit", "resource", resource.Identity, "size", len(data))
	return data, true
}

func (c *Cache) readEntry(rawMetadata []byte, dataPath string) ([]byte, error) {
	var entry CacheEntry
	if err := codec.Unmarshal(rawMetadata, &entry); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	encoding, err := ParseCompression(entry.Encoding)
	if err != nil {
		return nil, err
	}
	if entry.Size < 0 || (c.maxSize > 0 && entry.Size > c.maxSize) {
		return nil, fmt.Errorf("metadata size %d out of range", entry.Size)
	}
	stored, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, err
	}
	if int64(len(stored)) != entry.StoredSize {
		return nil, fmt.Errorf("stored entry is %d bytes, metadata says %d", len(stored), entry.StoredSize)
	}
	data, err := decompress(stored, encoding, int(entry.Size))
	if err != nil {
		return nil, err
	}
	if actual := Digest(data); actual != entry.Digest {
		return nil, fmt.Errorf("%w: stored %s, got %s", ErrIntegrity, entry.Digest, actual)
	}
	return data, nil
}

// Store writes data to the cache. The data file is written before the
// metadata, each through a rename, so a reader never sees metadata for
// a partial entry.
func (c *Cache) Store(resource bundle.Resource, data []byte) error {
	key := c.key(resource)
	dataPath, metadataPath := c.paths(key)

	encoding := c.compression
	stored, err := compress(data, encoding)
	if errors.Is(err, errIncompressible) {
		encoding, stored, err = CompressionNone, data, nil
	}
	if err != nil {
		return err
	}

	entry := CacheEntry{
		Namespace:  c.namespace,
		Identity:   resource.Identity,
		Location:   resource.FetchLocation(),
		Digest:     Digest(data),
		Size:       int64(len(data)),
		StoredSize: int64(len(stored)),
		Encoding:   encoding.String(),
		StoredAt:   c.clock.Now().UTC(),
	}
	metadata, err := codec.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	if err := writeFileAtomic(dataPath, stored); err != nil {
		return err
	}
	return writeFileAtomic(metadataPath, metadata)
}

func writeFileAtomic(path string, data []byte) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := temporary.Name()
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(name)
		return err
	}
	if err := temporary.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func (c *Cache) remove(key string) {
	dataPath, metadataPath := c.paths(key)
	os.Remove(metadataPath)
	os.Remove(dataPath)
}

// Entries lists the cached resources, sorted by identity then
// location. Sidecars that cannot be decoded are skipped.
func (c *Cache) Entries() ([]CacheEntry, error) {
	directory := filepath.Join(c.root, entriesDirectory)
	files, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}

	var entries []CacheEntry
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, metadataSuffix) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(directory, name))
		if err != nil {
			continue
		}
		var entry CacheEntry
		if err := codec.Unmarshal(raw, &entry); err != nil {
			c.logger.Debug("skipping undecodable cache metadata", "file", name, "error", err)
			continue
		}
		entry.Key = strings.TrimSuffix(name, metadataSuffix)
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Identity != entries[j].Identity {
			return entries[i].Identity < entries[j].Identity
		}
		return entries[i].Location < entries[j].Location
	})
	return entries, nil
}

// Clear removes every cache entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	directory := filepath.Join(c.root, entriesDirectory)
	files, err := os.ReadDir(directory)
	if err != nil {
		return 0, fmt.Errorf("listing cache: %w", err)
	}
	removed := 0
	var problems []error
	for _, file := range files {
		if err := os.Remove(filepath.Join(directory, file.Name())); err != nil {
			problems = append(problems, err)
			continue
		}
		if strings.HasSuffix(file.Name(), metadataSuffix) {
			removed++
		}
	}
	return removed, errors.Join(problems...)
}
