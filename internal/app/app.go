// Package app wires the capture, detection, trigger and audio stages
// into the running application.
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/trichoguard/internal/audio"
	"github.com/ayusman/trichoguard/internal/capture"
	"github.com/ayusman/trichoguard/internal/config"
	"github.com/ayusman/trichoguard/internal/detector"
	"github.com/ayusman/trichoguard/internal/logging"
	"github.com/ayusman/trichoguard/internal/proximity"
	"github.com/ayusman/trichoguard/internal/store"
	"github.com/ayusman/trichoguard/internal/trigger"
)

// eventBufferSize bounds the queue between the detection loop and the
// audio task. The cooldown keeps the rate far below this; overflow
// means audio is wedged and events are dropped, not detection blocked.
const eventBufferSize = 4

// Options holds the application dependencies. Camera and Oracle may be
// left nil to use the real implementations.
type Options struct {
	Config  config.Config
	Store   *store.Store
	Camera  capture.Camera
	Oracle  detector.Oracle
	Cache   *audio.Cache
	Phrases *audio.PhrasePool
	Stock   *audio.StockPool
	Logger  *slog.Logger
}

// Status is a read-only view of the pipeline for the dashboard and
// the tray.
type Status struct {
	Enabled       bool          `json:"enabled"`
	Near          bool          `json:"near"`
	State         trigger.State `json:"state"`
	Detecting     time.Duration `json:"detecting"`
	LastTriggered time.Time     `json:"last_triggered"`
	Triggers      uint64        `json:"triggers"`
}

// event is one fired trigger handed to the audio task.
type event struct {
	at   time.Time
	held time.Duration
}

// App orchestrates the detection pipeline and the audio response task.
type App struct {
	cfg      config.Config
	store    *store.Store
	camera   capture.Camera
	oracle   detector.Oracle
	exposure *capture.ExposureProcessor
	prox     *proximity.Detector
	machine  *trigger.Machine
	cache    *audio.Cache
	phrases  *audio.PhrasePool
	stock    *audio.StockPool
	logger   *slog.Logger

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	events chan event
	cfgCh  chan config.Detection

	// nearSince tracks the start of the current near run. Detection
	// loop only.
	nearSince time.Time

	statusMu sync.RWMutex
	status   Status

	frameMu sync.RWMutex
	frame   []byte // latest JPEG frame for the dashboard stream

	subMu sync.Mutex
	subs  map[chan Status]struct{}
}

// New creates an App from the given options.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:      opts.Config,
		store:    opts.Store,
		camera:   opts.Camera,
		oracle:   opts.Oracle,
		exposure: capture.NewExposureProcessor(),
		cache:    opts.Cache,
		phrases:  opts.Phrases,
		stock:    opts.Stock,
		logger:   logging.Component(logger, "app"),
		events:   make(chan event, eventBufferSize),
		cfgCh:    make(chan config.Detection, 1),
		subs:     make(map[chan Status]struct{}),
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(opts.Config.Camera.Device, opts.Config.Camera.Flip)
	}

	if a.oracle == nil {
		oracleCfg := detector.DefaultConfig()
		oracleCfg.HandConfidence = opts.Config.Detection.HandConfidence
		oracleCfg.FaceConfidence = opts.Config.Detection.FaceConfidence

		if mp, err := detector.NewMediaPipeOracle(oracleCfg); err == nil {
			a.oracle = mp
			a.logger.Info("using mediapipe landmark detection")
		} else {
			a.logger.Warn("mediapipe not available, using mock oracle", slog.Any("error", err))
			a.oracle = detector.NewMockOracle()
		}
	}

	a.prox = proximity.NewDetector(proximityConfig(opts.Config.Detection), logging.Component(logger, "proximity"))
	a.machine = trigger.NewMachine(
		triggerConfig(opts.Config.Detection),
		a.onTrigger,
		logging.Component(logger, "trigger"),
	)

	return a
}

// Start opens the camera and launches the detection and audio tasks.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopCh = make(chan struct{})

	a.wg.Add(2)
	go a.runPipeline(a.stopCh)
	go a.runAudio(ctx, a.stopCh)

	a.logger.Info("detection pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()

	if a.stopCh == nil {
		a.mu.Unlock()
		return
	}
	close(a.stopCh)
	a.stopCh = nil
	a.cancel()
	a.mu.Unlock()

	a.wg.Wait()

	if err := a.camera.Close(); err != nil {
		a.logger.Error("closing camera", slog.Any("error", err))
	}
	if err := a.oracle.Close(); err != nil {
		a.logger.Error("closing oracle", slog.Any("error", err))
	}
	a.exposure.Close()

	if a.cache != nil {
		if err := a.cache.Cleanup(); err != nil {
			a.logger.Warn("cache cleanup", slog.Any("error", err))
		}
	}

	a.logger.Info("detection pipeline stopped")
}

// SetEnabled enables or disables detection. The camera keeps running;
// frames are simply not evaluated while disabled.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()
	a.logger.Info("detection toggled", slog.Bool("enabled", enabled))
}

// IsEnabled reports whether detection is enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// ApplyDetection hands new thresholds to the detection loop. Values
// are clamped the same way the config file is; the loop picks them up
// on its next frame.
func (a *App) ApplyDetection(d config.Detection) {
	d.Clamp()

	a.mu.Lock()
	a.cfg.Detection = d
	a.mu.Unlock()

	select {
	case a.cfgCh <- d:
	default:
		// A pending update is stale now; replace it.
		select {
		case <-a.cfgCh:
		default:
		}
		a.cfgCh <- d
	}
}

// Detection returns the active detection thresholds.
func (a *App) Detection() config.Detection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Detection
}

// Status returns the latest published pipeline status.
func (a *App) Status() Status {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	return a.status
}

// Frame returns a copy of the latest JPEG-encoded frame, or nil if no
// frame has been captured yet.
func (a *App) Frame() []byte {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	if a.frame == nil {
		return nil
	}
	out := make([]byte, len(a.frame))
	copy(out, a.frame)
	return out
}

// Store returns the backing store.
func (a *App) Store() *store.Store {
	return a.store
}

// Phrases returns the phrase pool.
func (a *App) Phrases() *audio.PhrasePool {
	return a.phrases
}

// Subscribe registers a status listener. The returned cancel function
// must be called to release it. Slow listeners miss updates rather
// than blocking the pipeline.
func (a *App) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	a.subMu.Lock()
	a.subs[ch] = struct{}{}
	a.subMu.Unlock()

	cancel := func() {
		a.subMu.Lock()
		delete(a.subs, ch)
		a.subMu.Unlock()
	}
	return ch, cancel
}

// onTrigger runs inside the detection loop when the state machine
// fires. It only enqueues; synthesis and playback happen on the audio
// task.
func (a *App) onTrigger(t time.Time) {
	ev := event{at: t, held: a.heldFor(t)}
	select {
	case a.events <- ev:
	default:
		a.logger.Warn("audio queue full, dropping trigger event")
	}
}

func proximityConfig(d config.Detection) proximity.Config {
	return proximity.Config{
		MaxHeadDistance: d.MaxHeadDistance,
		ContactRadius:   d.ContactRadius,
		FullHead:        d.FullHeadDetection,
	}
}

func triggerConfig(d config.Detection) trigger.Config {
	return trigger.Config{
		RequiredDuration: time.Duration(d.RequiredDuration * float64(time.Second)),
		Cooldown:         time.Duration(d.TriggerCooldown * float64(time.Second)),
	}
}
