package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	f1, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f1.Close()

	f2, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f2.Close()

	// Third read should fail (no loop)
	_, err = cam.ReadFrame()
	if err == nil {
		t.Error("expected error after all frames consumed")
	}
}

func TestMockCamera_Loop(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_ReadWhenClosed(t *testing.T) {
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}
}

func TestMockCamera_FPS(t *testing.T) {
	cam := NewMockCamera(nil, false)

	if got := cam.FPS(); got != DefaultFPS {
		t.Errorf("FPS() = %d, want %d", got, DefaultFPS)
	}

	cam.SetFPS(30)
	if got := cam.FPS(); got != 30 {
		t.Errorf("FPS() = %d, want 30", got)
	}

	cam.SetFPS(0)
	if got := cam.FPS(); got != 30 {
		t.Errorf("FPS() = %d after invalid SetFPS, want 30", got)
	}
}

func TestSyntheticCamera(t *testing.T) {
	cam := NewSyntheticCamera(3)

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// More reads than generated frames: the synthetic sequence loops.
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		if f.Cols() != DefaultWidth || f.Rows() != DefaultHeight {
			t.Errorf("frame shape = %dx%d, want %dx%d",
				f.Cols(), f.Rows(), DefaultWidth, DefaultHeight)
		}
		if f.Channels() != 3 {
			t.Errorf("frame channels = %d, want 3", f.Channels())
		}
		f.Close()
	}

	if err := cam.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() after Close error = %v, want ErrCameraNotOpen", err)
	}
}

func TestSyntheticCamera_FramesStayUnderExposureThreshold(t *testing.T) {
	cam := NewSyntheticCamera(10)
	defer cam.Close()
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	p := NewExposureProcessor()
	defer p.Close()

	for i := 0; i < 10; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if p.IsOverexposed(f) {
			t.Errorf("synthetic frame %d reports overexposed", i)
		}
		f.Close()
	}
}

func TestExposureProcessor_IsOverexposed(t *testing.T) {
	p := NewExposureProcessor()
	defer p.Close()

	bright := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(250, 250, 250, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer bright.Close()
	if !p.IsOverexposed(&bright) {
		t.Error("expected a near-white frame to be overexposed")
	}

	dark := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(40, 40, 40, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer dark.Close()
	if p.IsOverexposed(&dark) {
		t.Error("expected a dark frame not to be overexposed")
	}
}

func TestExposureProcessor_IsOverexposedEmptyFrame(t *testing.T) {
	p := NewExposureProcessor()
	defer p.Close()

	empty := gocv.NewMat()
	defer empty.Close()
	if p.IsOverexposed(&empty) {
		t.Error("empty frame must not report overexposure")
	}
	if p.IsOverexposed(nil) {
		t.Error("nil frame must not report overexposure")
	}
}

func TestExposureProcessor_AdjustPreservesShape(t *testing.T) {
	p := NewExposureProcessor()
	defer p.Close()

	frame := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(200, 180, 160, 0), 480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()

	p.Adjust(&frame)

	if frame.Rows() != 480 || frame.Cols() != 640 {
		t.Errorf("frame shape = %dx%d, want 640x480", frame.Cols(), frame.Rows())
	}
	if frame.Channels() != 3 {
		t.Errorf("frame channels = %d, want 3", frame.Channels())
	}
}
