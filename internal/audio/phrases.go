package audio

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
)

// DefaultPhrases are the built-in motivational messages, written to
// the phrase file on first run.
var DefaultPhrases = []string{
	"You're stronger than this urge. You've got this!",
	"Keep your hands free!",
	"Every moment you resist makes you stronger.",
	"You're in control. Take a deep breath and release the tension.",
	"This temporary urge will pass. Stay strong!",
	"Notice the urge, but don't act on it.",
	"Keep your hands busy. Maybe try a stress ball.",
	"One moment at a time. You've got this.",
	"Maybe try massaging your scalp gently instead.",
	"Take a deep breath and relax.",
}

// PhrasePool manages the user-editable message list backed by a JSON
// file.
type PhrasePool struct {
	path    string
	mu      sync.RWMutex
	phrases []string
}

// LoadPhrases reads the phrase file, creating it with the defaults if
// it is missing or invalid.
func LoadPhrases(path string) (*PhrasePool, error) {
	p := &PhrasePool{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("phrases: read %s: %w", path, err)
		}
		p.phrases = append([]string{}, DefaultPhrases...)
		if err := p.save(); err != nil {
			return nil, err
		}
		return p, nil
	}

	var phrases []string
	if err := json.Unmarshal(data, &phrases); err != nil || len(phrases) == 0 {
		p.phrases = append([]string{}, DefaultPhrases...)
		if err := p.save(); err != nil {
			return nil, err
		}
		return p, nil
	}

	p.phrases = phrases
	return p, nil
}

// Random picks one phrase.
func (p *PhrasePool) Random() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.phrases) == 0 {
		return ""
	}
	return p.phrases[rand.Intn(len(p.phrases))]
}

// List returns a copy of the phrase list.
func (p *PhrasePool) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string{}, p.phrases...)
}

// Replace swaps the phrase list and persists it.
func (p *PhrasePool) Replace(phrases []string) error {
	if len(phrases) == 0 {
		return fmt.Errorf("phrases: empty list")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.phrases = append([]string{}, phrases...)
	return p.save()
}

// save writes the list; callers hold the lock or own the pool.
func (p *PhrasePool) save() error {
	data, err := json.MarshalIndent(p.phrases, "", "    ")
	if err != nil {
		return fmt.Errorf("phrases: encode: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("phrases: write %s: %w", p.path, err)
	}
	return nil
}
