package app

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/trichoguard/internal/capture"
	"github.com/ayusman/trichoguard/internal/proximity"
	"github.com/ayusman/trichoguard/internal/store"
)

// runPipeline is the detection loop. Each tick it reads a frame,
// conditions the exposure, runs the landmark oracle, evaluates
// proximity and advances the trigger state machine. Triggers are
// enqueued for the audio task, never handled inline.
func (a *App) runPipeline(stop <-chan struct{}) {
	defer a.wg.Done()

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case d := <-a.cfgCh:
			a.prox.SetConfig(proximityConfig(d))
			a.machine.SetConfig(triggerConfig(d))
			a.logger.Info("detection thresholds updated",
				slog.Float64("max_head_distance", d.MaxHeadDistance),
				slog.Bool("full_head", d.FullHeadDetection))

		case <-ticker.C:
			now := time.Now()

			if !a.IsEnabled() {
				a.publishStatus(false, now)
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.logger.Debug("read frame", slog.Any("error", err))
				continue
			}

			if a.exposure.IsOverexposed(frame) {
				a.exposure.Adjust(frame)
			}

			result, err := a.oracle.Detect(frame)
			if err != nil {
				frame.Close()
				a.logger.Error("landmark detection", slog.Any("error", err))
				continue
			}

			sig := a.prox.Evaluate(result.Hands, result.Face, frame.Cols(), frame.Rows())

			if sig.Near {
				if a.nearSince.IsZero() {
					a.nearSince = now
				}
			} else {
				a.nearSince = time.Time{}
			}

			a.machine.Update(sig.Near, now)

			a.publishFrame(frame, sig)
			frame.Close()

			a.publishStatus(sig.Near, now)
		}
	}
}

// heldFor approximates how long the current gesture has been held.
func (a *App) heldFor(t time.Time) time.Duration {
	if a.nearSince.IsZero() {
		return 0
	}
	return t.Sub(a.nearSince)
}

// publishFrame marks contact points on the frame and stores it as JPEG
// for the dashboard stream.
func (a *App) publishFrame(frame *gocv.Mat, sig proximity.Signal) {
	for _, p := range sig.ContactPoints {
		gocv.Circle(frame, image.Pt(p.X, p.Y), 12, color.RGBA{R: 255, A: 255}, 2)
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		a.logger.Debug("encode frame", slog.Any("error", err))
		return
	}
	defer buf.Close()

	data := buf.GetBytes()
	cp := make([]byte, len(data))
	copy(cp, data)

	a.frameMu.Lock()
	a.frame = cp
	a.frameMu.Unlock()
}

// publishStatus records the pipeline status and fans it out to
// subscribers without blocking.
func (a *App) publishStatus(near bool, now time.Time) {
	snap := a.machine.Snapshot(now)
	status := Status{
		Enabled:       a.IsEnabled(),
		Near:          near,
		State:         snap.State,
		Detecting:     snap.Detecting,
		LastTriggered: snap.LastTriggered,
		Triggers:      snap.Triggers,
	}

	a.statusMu.Lock()
	a.status = status
	a.statusMu.Unlock()

	a.subMu.Lock()
	for ch := range a.subs {
		select {
		case ch <- status:
		default:
			// Drop the stale update so the fresh one fits.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
	a.subMu.Unlock()
}

// runAudio consumes trigger events and plays the spoken response.
// Synthesis and playback both block, which is why this runs apart from
// the detection loop.
func (a *App) runAudio(ctx context.Context, stop <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stop:
			return
		case ev := <-a.events:
			a.respond(ctx, ev)
		}
	}
}

// respond picks a phrase, resolves a clip for it and plays it, falling
// back to stock audio when synthesis fails. The trigger is recorded
// either way.
func (a *App) respond(ctx context.Context, ev event) {
	phrase := ""
	if a.phrases != nil {
		phrase = a.phrases.Random()
	}

	var path string
	if a.cfg.Audio.UseTTS && a.cache != nil && phrase != "" {
		p, err := a.cache.Resolve(ctx, phrase)
		if err != nil {
			a.logger.Warn("synthesis failed, trying stock audio", slog.Any("error", err))
		} else {
			path = p
		}
	}

	if path == "" && a.stock != nil && !a.stock.Empty() {
		if p, err := a.stock.Random(); err == nil {
			path = p
		}
	}

	if path != "" && a.cache != nil {
		// Play errors are already logged by the cache.
		_ = a.cache.Play(ctx, path)
	} else {
		a.logger.Warn("no audio available for trigger")
	}

	if a.store != nil {
		err := a.store.Triggers().Add(&store.Trigger{
			OccurredAt: ev.at,
			Phrase:     phrase,
			Held:       ev.held,
		})
		if err != nil {
			a.logger.Error("record trigger", slog.Any("error", err))
		}
	}
}
