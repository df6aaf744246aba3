package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// clipExt is the extension of cached synthesized clips.
const clipExt = ".mp3"

// tmpExt marks in-progress writes; Cleanup sweeps strays.
const tmpExt = ".tmp"

// RetryPolicy is a bounded retry for file deletion. Playback handles
// can hold cache files open transiently on some platforms, so a single
// failed remove is not final.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy matches the historical deletion behavior: five
// attempts half a second apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 5, Delay: 500 * time.Millisecond}

// Remove deletes the file, retrying on failure. A missing file counts
// as success.
func (r RetryPolicy) Remove(path string) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && r.Delay > 0 {
			time.Sleep(r.Delay)
		}
		err = os.Remove(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	return fmt.Errorf("audio: remove %s after %d attempts: %w", path, attempts, err)
}

// entry describes one cached clip on disk.
type entry struct {
	path    string
	size    int64
	modTime time.Time
}

// Cache is the content-addressed store of synthesized clips. A message
// always maps to the same key, so repeated triggers of the same phrase
// cost one synthesis total. One mutex serializes playback, insertion
// and eviction; trigger rates are low enough that finer locking buys
// nothing.
type Cache struct {
	dir      string
	maxBytes int64
	synth    Synthesizer
	player   Player
	retry    RetryPolicy
	logger   *slog.Logger

	mu sync.Mutex
}

// NewCache creates the cache rooted at dir with the given size limit.
func NewCache(dir string, maxBytes int64, synth Synthesizer, player Player, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create cache dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		synth:    synth,
		player:   player,
		retry:    DefaultRetryPolicy,
		logger:   logger,
	}, nil
}

// Key returns the content address for a message.
func Key(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// Resolve returns the path of the clip for the message, synthesizing
// it on first use. Cache hits refresh the entry's access time and skip
// synthesis entirely.
func (c *Cache) Resolve(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, Key(message)+clipExt)

	if _, err := os.Stat(path); err == nil {
		now := time.Now()
		_ = os.Chtimes(path, now, now)
		c.logger.Debug("cache hit", slog.String("path", path))
		return path, nil
	}

	data, err := c.synth.Synthesize(ctx, message)
	if err != nil {
		return "", fmt.Errorf("audio: synthesize: %w", err)
	}

	tmp := path + tmpExt
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("audio: write clip: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("audio: commit clip: %w", err)
	}

	c.logger.Debug("synthesized clip",
		slog.String("path", path),
		slog.Int("bytes", len(data)))

	c.enforceLimitLocked(path)
	return path, nil
}

// Play plays the clip, serialized with all other playback and cache
// mutation. It blocks the calling goroutine until playback completes;
// run it on the background audio task, never the detection loop.
func (c *Cache) Play(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.player.Play(ctx, path); err != nil {
		// Reset the device and carry on; a failed notification must
		// not halt detection.
		c.player.Stop()
		c.logger.Error("playback failed", slog.String("path", path), slog.Any("error", err))
		return err
	}
	return nil
}

// EnforceLimit brings the cache under its size limit, oldest entries
// first. Failures are logged, never returned: a stuck file means a
// temporary over-limit state, not a fault.
func (c *Cache) EnforceLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enforceLimitLocked("")
}

func (c *Cache) enforceLimitLocked(keep string) {
	if c.maxBytes <= 0 {
		return
	}

	entries, total, err := c.scan()
	if err != nil {
		c.logger.Warn("cache scan failed", slog.Any("error", err))
		return
	}

	for _, e := range entries {
		if total <= c.maxBytes {
			break
		}
		if e.path == keep {
			continue
		}
		if err := c.retry.Remove(e.path); err != nil {
			c.logger.Warn("eviction failed, cache over limit",
				slog.String("path", e.path),
				slog.Any("error", err))
			continue
		}
		total -= e.size
		c.logger.Debug("evicted clip",
			slog.String("path", e.path),
			slog.Int64("bytes", e.size))
	}

	// Eviction can run out of candidates, e.g. a single clip larger
	// than the whole limit. The over-limit state must never be silent.
	if total > c.maxBytes {
		c.logger.Warn("cache over limit after eviction",
			slog.Int64("total_bytes", total),
			slog.Int64("limit_bytes", c.maxBytes))
	}
}

// scan lists cached clips sorted oldest-first by modification time.
func (c *Cache) scan() ([]entry, int64, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, 0, err
	}

	var entries []entry
	var total int64
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), clipExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entry{
			path:    filepath.Join(c.dir, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	return entries, total, nil
}

// Size returns the current total size of cached clips in bytes.
func (c *Cache) Size() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, total, err := c.scan()
	return total, err
}

// Cleanup stops playback and sweeps leftover temp files. The playback
// lock is taken so no in-flight write is deleted mid-write. Failures
// are collected and reported together, not raised one by one.
func (c *Cache) Cleanup() error {
	c.player.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("audio: cleanup scan: %w", err)
	}

	var errs []error
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), tmpExt) {
			continue
		}
		if err := c.retry.Remove(filepath.Join(c.dir, de.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetRetryPolicy overrides the deletion retry policy.
func (c *Cache) SetRetryPolicy(policy RetryPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retry = policy
}
