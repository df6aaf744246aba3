// Package proximity decides whether a detected hand is near the head
// regions that matter for hair-pulling detection.
package proximity

import (
	"log/slog"
	"time"

	"github.com/ayusman/trichoguard/internal/landmark"
)

// baselineRegions are the face mesh indices always tested: eyes,
// forehead, crown and temples.
var baselineRegions = []int{
	landmark.RightEye,
	landmark.LeftEye,
	landmark.Forehead,
	landmark.Crown,
	landmark.TempleRight,
	landmark.TempleLeft,
}

// fullHeadRegions extend the baseline set when full-head detection is
// enabled: jaw, cheeks, nose and eyebrows.
var fullHeadRegions = []int{
	landmark.Chin,
	landmark.LeftCheek,
	landmark.RightCheek,
	landmark.JawLeft,
	landmark.JawRight,
	landmark.NoseTip,
	landmark.EyebrowLeft,
	landmark.EyebrowRight,
}

// contactSampleStride selects every other face mesh point for the
// tight-contact scan in full-head mode.
const contactSampleStride = 2

// Config holds the proximity thresholds.
type Config struct {
	// MaxHeadDistance is the 3D pixel distance below which a hand
	// landmark counts as near a head region point.
	MaxHeadDistance float64

	// ContactRadius is the tighter threshold used by the full-head
	// contact scan. It is independent of MaxHeadDistance: contact and
	// proximity are different questions.
	ContactRadius float64

	// FullHead widens the region set and enables the contact scan.
	FullHead bool
}

// Signal is the per-frame result consumed by the trigger state machine
// and the overlay renderers. Produced fresh each frame.
type Signal struct {
	Near          bool               `json:"near"`
	ContactPoints []landmark.Point2D `json:"contact_points,omitempty"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Detector evaluates one frame's landmarks against the head regions.
// It is deliberately permissive: false positives are absorbed by the
// debounced state machine downstream, not here.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// NewDetector creates a Detector with the given thresholds.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// SetConfig replaces the thresholds. The caller owns synchronization;
// the detection loop is the only writer and reader.
func (d *Detector) SetConfig(cfg Config) {
	d.cfg = cfg
}

// Config returns the current thresholds.
func (d *Detector) Config() Config {
	return d.cfg
}

// Evaluate returns whether any hand landmark is near the active head
// regions. Missing hands or face is the normal "nothing to see" case
// and yields a quiet false.
func (d *Detector) Evaluate(hands []landmark.HandLandmarks, face *landmark.FaceLandmarks, width, height int) Signal {
	sig := Signal{Timestamp: time.Now()}

	if len(hands) == 0 || face == nil || len(face.Points) == 0 {
		d.logger.Debug("no detection this frame",
			slog.Int("hands", len(hands)),
			slog.Bool("face", face != nil && len(face.Points) > 0))
		return sig
	}

	w := float64(width)
	h := float64(height)

	eyeLevel, err := landmark.EyeLevel(face, h)
	if err != nil {
		return sig
	}

	regionPoints := d.regionPoints(face)

	for hi := range hands {
		for _, hp := range hands[hi].Points {
			// Baseline mode restricts to the above-the-eyes area to
			// cut false positives from hands near the chin and neck.
			if !d.cfg.FullHead && hp.Y*h > eyeLevel {
				continue
			}

			for _, fp := range regionPoints {
				if landmark.Distance3D(hp, fp, w, h) < d.cfg.MaxHeadDistance {
					sig.Near = true
					sig.ContactPoints = append(sig.ContactPoints, toPixel(fp, w, h))
					return sig
				}
			}
		}
	}

	if d.cfg.FullHead {
		return d.contactScan(sig, hands, face, w, h)
	}

	return sig
}

// regionPoints builds the active region-of-interest point set.
func (d *Detector) regionPoints(face *landmark.FaceLandmarks) []landmark.Point3D {
	indices := baselineRegions
	if d.cfg.FullHead {
		indices = append(append([]int{}, baselineRegions...), fullHeadRegions...)
	}

	points := make([]landmark.Point3D, 0, len(indices))
	for _, idx := range indices {
		points = append(points, face.Point(idx))
	}
	return points
}

// contactScan runs the tight-contact check against a denser sampling
// of the face mesh. The radius is fixed by ContactRadius and does not
// track MaxHeadDistance.
func (d *Detector) contactScan(sig Signal, hands []landmark.HandLandmarks, face *landmark.FaceLandmarks, w, h float64) Signal {
	for hi := range hands {
		for _, hp := range hands[hi].Points {
			for fi := 0; fi < len(face.Points); fi += contactSampleStride {
				fp := face.Points[fi]
				if landmark.Distance3D(hp, fp, w, h) < d.cfg.ContactRadius {
					sig.Near = true
					sig.ContactPoints = append(sig.ContactPoints, toPixel(fp, w, h))
					return sig
				}
			}
		}
	}
	return sig
}

func toPixel(p landmark.Point3D, w, h float64) landmark.Point2D {
	return landmark.Point2D{X: int(p.X * w), Y: int(p.Y * h)}
}
