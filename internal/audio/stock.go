package audio

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// StockPool serves pre-recorded clips from a directory. It is the
// fallback when synthesis is unavailable or failing.
type StockPool struct {
	dir   string
	files []string
}

// NewStockPool scans dir for playable clips. An empty pool is valid;
// Random reports it.
func NewStockPool(dir string) (*StockPool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create stock dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("audio: scan stock dir: %w", err)
	}

	pool := &StockPool{dir: dir}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".wav") {
			pool.files = append(pool.files, filepath.Join(dir, name))
		}
	}
	return pool, nil
}

// Empty reports whether the pool holds any clips.
func (s *StockPool) Empty() bool {
	return len(s.files) == 0
}

// Random returns a random stock clip path.
func (s *StockPool) Random() (string, error) {
	if len(s.files) == 0 {
		return "", fmt.Errorf("audio: stock pool %s is empty", s.dir)
	}
	return s.files[rand.Intn(len(s.files))], nil
}
