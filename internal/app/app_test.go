package app

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ayusman/trichoguard/internal/audio"
	"github.com/ayusman/trichoguard/internal/capture"
	"github.com/ayusman/trichoguard/internal/config"
	"github.com/ayusman/trichoguard/internal/detector"
	"github.com/ayusman/trichoguard/internal/landmark"
	"github.com/ayusman/trichoguard/internal/store"
)

type fakeSynth struct {
	calls atomic.Int32
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.calls.Add(1)
	return []byte("not really audio"), nil
}

type fakePlayer struct {
	played atomic.Int32
}

func (f *fakePlayer) Play(ctx context.Context, path string) error {
	f.played.Add(1)
	return nil
}

func (f *fakePlayer) Stop() {}

// newTestApp builds an App with a looping synthetic camera, a mock
// oracle and in-memory audio fakes. Mutators adjust the config before
// the app is built.
func newTestApp(t *testing.T, oracle detector.Oracle, mutate ...func(*config.Config)) (*App, *fakePlayer, *store.Store) {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Detection.RequiredDuration = 0.2
	cfg.Detection.TriggerCooldown = 1
	for _, m := range mutate {
		m(&cfg)
	}

	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	player := &fakePlayer{}
	cache, err := audio.NewCache(filepath.Join(dir, "audio"), cfg.CacheLimitBytes(), &fakeSynth{}, player, nil)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	phrases, err := audio.LoadPhrases(filepath.Join(dir, "phrases.json"))
	if err != nil {
		t.Fatalf("phrases: %v", err)
	}

	stock, err := audio.NewStockPool(filepath.Join(dir, "stock"))
	if err != nil {
		t.Fatalf("stock: %v", err)
	}

	a := New(Options{
		Config:  cfg,
		Store:   s,
		Camera:  capture.NewSyntheticCamera(1),
		Oracle:  oracle,
		Cache:   cache,
		Phrases: phrases,
		Stock:   stock,
	})
	return a, player, s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestApp_SustainedGestureTriggersAudio(t *testing.T) {
	oracle := detector.NewMockOracle()
	oracle.SetResult(&detector.Result{
		Hands: []landmark.HandLandmarks{detector.HandAtForehead()},
		Face:  detector.FrontalFace(),
	})

	a, player, s := newTestApp(t, oracle)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.SetEnabled(true)

	if !waitFor(t, 5*time.Second, func() bool { return a.Status().Triggers >= 1 }) {
		t.Fatal("expected at least one trigger from a sustained gesture")
	}

	if !waitFor(t, 3*time.Second, func() bool { return player.played.Load() >= 1 }) {
		t.Fatal("expected the trigger to play audio")
	}

	if !waitFor(t, 3*time.Second, func() bool {
		count, err := s.Triggers().TodayCount(time.Now())
		return err == nil && count >= 1
	}) {
		t.Fatal("expected the trigger to be recorded")
	}
}

func TestApp_DisabledNeverTriggers(t *testing.T) {
	oracle := detector.NewMockOracle()
	oracle.SetResult(&detector.Result{
		Hands: []landmark.HandLandmarks{detector.HandAtForehead()},
		Face:  detector.FrontalFace(),
	})

	a, player, _ := newTestApp(t, oracle)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	time.Sleep(time.Second)

	if got := a.Status().Triggers; got != 0 {
		t.Errorf("triggers = %d, want 0 while disabled", got)
	}
	if player.played.Load() != 0 {
		t.Error("audio played while disabled")
	}
}

func TestApp_RestingHandNeverTriggers(t *testing.T) {
	oracle := detector.NewMockOracle()
	oracle.SetResult(&detector.Result{
		Hands: []landmark.HandLandmarks{detector.HandAtRest()},
		Face:  detector.FrontalFace(),
	})

	a, _, _ := newTestApp(t, oracle)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.SetEnabled(true)
	time.Sleep(time.Second)

	if got := a.Status().Triggers; got != 0 {
		t.Errorf("triggers = %d, want 0 for a resting hand", got)
	}
}

func TestApp_ApplyDetectionTakesEffect(t *testing.T) {
	oracle := detector.NewMockOracle()
	oracle.SetResult(&detector.Result{
		Hands: []landmark.HandLandmarks{detector.HandAtForehead()},
		Face:  detector.FrontalFace(),
	})

	// Start with a required duration far beyond the test window, so
	// the sustained gesture cannot fire.
	a, _, _ := newTestApp(t, oracle, func(c *config.Config) {
		c.Detection.RequiredDuration = 60
	})
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.SetEnabled(true)

	time.Sleep(time.Second)
	if got := a.Status().Triggers; got != 0 {
		t.Fatalf("triggers = %d, want 0 under the raised duration", got)
	}

	// Drop it back down; the running loop must pick the change up
	// without a restart.
	relaxed := a.Detection()
	relaxed.RequiredDuration = 0.2
	a.ApplyDetection(relaxed)

	if got := a.Detection().RequiredDuration; got != 0.2 {
		t.Errorf("required duration = %v, want 0.2", got)
	}
	if !waitFor(t, 5*time.Second, func() bool { return a.Status().Triggers >= 1 }) {
		t.Fatal("expected a trigger after lowering the required duration")
	}
}

func TestApp_StatusSubscription(t *testing.T) {
	oracle := detector.NewMockOracle()

	a, _, _ := newTestApp(t, oracle)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	ch, cancel := a.Subscribe()
	defer cancel()

	a.SetEnabled(true)

	// Early updates may predate the toggle; keep reading until an
	// enabled status arrives.
	deadline := time.After(3 * time.Second)
	for {
		select {
		case st := <-ch:
			if st.Enabled {
				return
			}
		case <-deadline:
			t.Fatal("no enabled status update received")
		}
	}
}

func TestApp_FramePublished(t *testing.T) {
	oracle := detector.NewMockOracle()

	a, _, _ := newTestApp(t, oracle)
	if err := a.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer a.Stop()

	a.SetEnabled(true)

	if !waitFor(t, 3*time.Second, func() bool { return a.Frame() != nil }) {
		t.Fatal("expected a published frame")
	}
}
