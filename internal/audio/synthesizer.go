// Package audio provides speech synthesis, a size-bounded
// content-addressed cache of synthesized clips, and serialized
// playback.
package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Synthesizer turns a message into playable audio bytes. Synthesis is
// assumed fallible (network dependent); callers fall back to stock
// audio when it errors.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// googleTTSEndpoint is the unauthenticated Translate TTS endpoint.
const googleTTSEndpoint = "https://translate.google.com/translate_tts"

// GoogleTTS synthesizes speech via the Google Translate TTS service.
type GoogleTTS struct {
	Language string
	Client   *http.Client
}

// NewGoogleTTS creates a synthesizer for the given language code.
func NewGoogleTTS(language string) *GoogleTTS {
	if language == "" {
		language = "en"
	}
	return &GoogleTTS{
		Language: language,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Synthesize fetches an MP3 clip for the text.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("tts: empty text")
	}

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.Language)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleTTSEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tts: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("tts: empty response")
	}

	return data, nil
}
