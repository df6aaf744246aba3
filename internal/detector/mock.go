package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/trichoguard/internal/landmark"
)

// MockOracle is a test implementation of the Oracle interface.
// It allows tests to control the detection results.
type MockOracle struct {
	result *Result
	err    error
}

// NewMockOracle creates a new MockOracle instance.
func NewMockOracle() *MockOracle {
	return &MockOracle{}
}

// SetResult sets the result that will be returned by Detect.
func (m *MockOracle) SetResult(result *Result) {
	m.result = result
}

// SetError sets the error that will be returned by Detect.
func (m *MockOracle) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured result or error.
func (m *MockOracle) Detect(frame *gocv.Mat) (*Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &Result{}, nil
	}
	return m.result, nil
}

// Close is a no-op for the mock oracle.
func (m *MockOracle) Close() error {
	return nil
}

// FrontalFace returns a preset face mesh for a face centered in the
// frame, eyes at 35% of the frame height.
func FrontalFace() *landmark.FaceLandmarks {
	face := &landmark.FaceLandmarks{
		Points: make([]landmark.Point3D, landmark.NumFaceLandmarks),
		Score:  0.95,
	}

	// Most mesh points sit around the center of the face
	for i := range face.Points {
		face.Points[i] = landmark.Point3D{X: 0.5, Y: 0.45, Z: 0.0}
	}

	face.Points[landmark.RightEye] = landmark.Point3D{X: 0.45, Y: 0.35, Z: 0.0}
	face.Points[landmark.LeftEye] = landmark.Point3D{X: 0.55, Y: 0.35, Z: 0.0}
	face.Points[landmark.Forehead] = landmark.Point3D{X: 0.5, Y: 0.12, Z: 0.0}
	face.Points[landmark.TempleRight] = landmark.Point3D{X: 0.62, Y: 0.35, Z: 0.0}
	face.Points[landmark.TempleLeft] = landmark.Point3D{X: 0.38, Y: 0.35, Z: 0.0}
	face.Points[landmark.Chin] = landmark.Point3D{X: 0.5, Y: 0.75, Z: 0.0}
	face.Points[landmark.NoseTip] = landmark.Point3D{X: 0.5, Y: 0.45, Z: 0.0}
	face.Points[landmark.LeftCheek] = landmark.Point3D{X: 0.36, Y: 0.5, Z: 0.0}
	face.Points[landmark.RightCheek] = landmark.Point3D{X: 0.64, Y: 0.5, Z: 0.0}
	face.Points[landmark.JawLeft] = landmark.Point3D{X: 0.4, Y: 0.65, Z: 0.0}
	face.Points[landmark.JawRight] = landmark.Point3D{X: 0.6, Y: 0.65, Z: 0.0}
	face.Points[landmark.EyebrowLeft] = landmark.Point3D{X: 0.56, Y: 0.3, Z: 0.0}
	face.Points[landmark.EyebrowRight] = landmark.Point3D{X: 0.44, Y: 0.3, Z: 0.0}

	return face
}

// HandAtForehead returns a preset hand with the index fingertip right
// at the forehead of FrontalFace.
func HandAtForehead() landmark.HandLandmarks {
	hand := restingHand()
	hand.Points[landmark.IndexTip] = landmark.Point3D{X: 0.5, Y: 0.13, Z: 0.0}
	hand.Points[landmark.IndexDIP] = landmark.Point3D{X: 0.51, Y: 0.18, Z: 0.0}
	hand.Points[landmark.IndexPIP] = landmark.Point3D{X: 0.52, Y: 0.24, Z: 0.0}
	return hand
}

// HandAtRest returns a preset hand resting low in the frame, far from
// the face.
func HandAtRest() landmark.HandLandmarks {
	return restingHand()
}

func restingHand() landmark.HandLandmarks {
	hand := landmark.HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	for i := range hand.Points {
		hand.Points[i] = landmark.Point3D{
			X: 0.2 + float64(i)*0.005,
			Y: 0.9,
			Z: 0.0,
		}
	}
	return hand
}
