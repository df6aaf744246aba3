// Package landmark defines the landmark value types produced by the
// detection oracle and the pure geometry used on top of them.
package landmark

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist            = 0
	ThumbCMC         = 1
	ThumbMCP         = 2
	ThumbIP          = 3
	ThumbTip         = 4
	IndexMCP         = 5
	IndexPIP         = 6
	IndexDIP         = 7
	IndexTip         = 8
	MiddleMCP        = 9
	MiddlePIP        = 10
	MiddleDIP        = 11
	MiddleTip        = 12
	RingMCP          = 13
	RingPIP          = 14
	RingDIP          = 15
	RingTip          = 16
	PinkyMCP         = 17
	PinkyPIP         = 18
	PinkyDIP         = 19
	PinkyTip         = 20
	NumHandLandmarks = 21
)

// Face mesh landmark indices following the MediaPipe face mesh topology.
// Only the points used for head-region proximity testing are named.
const (
	RightEye     = 159
	LeftEye      = 386
	Forehead     = 10
	Crown        = 152
	TempleRight  = 447
	TempleLeft   = 227
	Chin         = 152
	LeftCheek    = 234
	RightCheek   = 454
	JawLeft      = 136
	JawRight     = 365
	NoseTip      = 4
	EyebrowLeft  = 282
	EyebrowRight = 52

	// NumFaceLandmarks is the size of the full face mesh.
	NumFaceLandmarks = 468
)

// Point3D represents a 3D point with x/y normalized to frame size and
// z reported relative to hand/face span.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point2D is a pixel-space point used for overlay drawing.
type Point2D struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// HandLandmarks represents the 21 hand landmarks detected for one hand.
type HandLandmarks struct {
	Points     [NumHandLandmarks]Point3D `json:"points"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// FaceLandmarks represents one detected face mesh. The mesh is dense
// (468 points), so points are held in a slice rather than an array.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Point returns the mesh point at the given index, or a zero point if
// the mesh is truncated.
func (f *FaceLandmarks) Point(idx int) Point3D {
	if f == nil || idx < 0 || idx >= len(f.Points) {
		return Point3D{}
	}
	return f.Points[idx]
}
