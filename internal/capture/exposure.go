package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Exposure processing constants
const (
	// OverexposureThreshold is the mean grayscale level above which a
	// frame counts as washed out.
	OverexposureThreshold = 220
	// claheClipLimit bounds local contrast amplification.
	claheClipLimit = 3.0
	// claheTileSize is the CLAHE tile grid dimension.
	claheTileSize = 8
)

// ExposureProcessor conditions frames for the landmark oracle: bright
// rooms and backlit faces wash out landmarks, so overexposed frames
// get local contrast equalization on the lightness channel.
type ExposureProcessor struct {
	clahe gocv.CLAHE
	mu    sync.Mutex
}

// NewExposureProcessor creates an ExposureProcessor.
func NewExposureProcessor() *ExposureProcessor {
	return &ExposureProcessor{
		clahe: gocv.NewCLAHEWithParams(claheClipLimit, image.Point{X: claheTileSize, Y: claheTileSize}),
	}
}

// IsOverexposed reports whether the frame's mean brightness exceeds
// the overexposure threshold. The check runs on a quarter-scale
// grayscale copy to stay cheap on the detection loop.
func (p *ExposureProcessor) IsOverexposed(frame *gocv.Mat) bool {
	if frame == nil || frame.Empty() {
		return false
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*frame, &small, image.Point{}, 0.25, 0.25, gocv.InterpolationLinear)

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}

	return gray.Mean().Val1 > OverexposureThreshold
}

// Adjust applies CLAHE to the L channel in Lab space and writes the
// result back into frame.
func (p *ExposureProcessor) Adjust(frame *gocv.Mat) {
	if frame == nil || frame.Empty() || frame.Channels() != 3 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	lab := gocv.NewMat()
	defer lab.Close()
	gocv.CvtColor(*frame, &lab, gocv.ColorBGRToLab)

	channels := gocv.Split(lab)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()

	equalized := gocv.NewMat()
	defer equalized.Close()
	p.clahe.Apply(channels[0], &equalized)
	equalized.CopyTo(&channels[0])

	gocv.Merge(channels, &lab)
	gocv.CvtColor(lab, frame, gocv.ColorLabToBGR)
}

// Close releases the CLAHE resources.
func (p *ExposureProcessor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clahe.Close()
}
