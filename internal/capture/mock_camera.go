package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back a fixed frame sequence through the Camera
// interface, so the detection pipeline runs without a physical device.
// Frames may be caller-owned (NewMockCamera) or synthesized and owned
// by the camera (NewSyntheticCamera).
type MockCamera struct {
	frames []*gocv.Mat
	owned  bool
	index  int
	loop   bool
	fps    int

	mu      sync.Mutex
	running bool
}

// NewMockCamera creates a camera playing back the given frames. The
// caller keeps ownership of the Mats and must close them after the
// camera is done.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

// NewSyntheticCamera creates a looping camera over n generated frames
// at the capture resolution. Each frame is a flat gray field with a
// per-frame brightness step, dim enough to stay below the
// overexposure threshold. The camera owns the frames; Close releases
// them.
func NewSyntheticCamera(n int) *MockCamera {
	if n < 1 {
		n = 1
	}

	frames := make([]*gocv.Mat, n)
	for i := range frames {
		level := float64(80 + (i*10)%100)
		mat := gocv.NewMatWithSizeFromScalar(
			gocv.NewScalar(level, level, level, 0),
			DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
		frames[i] = &mat
	}

	return &MockCamera{
		frames: frames,
		owned:  true,
		loop:   true,
		fps:    DefaultFPS,
	}
}

// Open starts playback from the first frame.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

// Close stops playback and, for synthetic frames, releases them.
func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = false
	if c.owned {
		for _, f := range c.frames {
			f.Close()
		}
		c.frames = nil
	}
	return nil
}

// ReadFrame returns a clone of the next frame in the sequence. The
// caller owns the clone; the backing frames are never handed out, so
// the pipeline's contact-point drawing cannot corrupt the sequence.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}

	if len(c.frames) == 0 {
		return nil, errors.New("mock camera: no frames loaded")
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, errors.New("mock camera: frame sequence exhausted")
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

// SetFPS sets the nominal frame rate, which paces the detection loop.
// Values less than or equal to 0 are ignored.
func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

// FPS returns the nominal frame rate.
func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// IsOpen reports whether the camera is playing back.
func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetFrames replaces the frame sequence and restarts playback.
// Replacing owned frames releases the old ones.
func (c *MockCamera) SetFrames(frames []*gocv.Mat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owned {
		for _, f := range c.frames {
			f.Close()
		}
		c.owned = false
	}
	c.frames = frames
	c.index = 0
}

// Reset restarts playback from the first frame.
func (c *MockCamera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}
