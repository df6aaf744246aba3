package landmark

import (
	"errors"
	"math"
)

// ErrNoLandmarks is returned by geometry functions that are only
// defined over non-empty landmark sets.
var ErrNoLandmarks = errors.New("landmark: empty landmark set")

// BrowMargin is the fraction of frame height added below the measured
// eye line to tolerate brow curvature.
const BrowMargin = 0.05

// Distance3D calculates the Euclidean distance between two normalized
// points in pixel space. Z is scaled by frame width because landmark
// depth is reported relative to hand/face span, not frame height.
func Distance3D(a, b Point3D, width, height float64) float64 {
	dx := (a.X - b.X) * width
	dy := (a.Y - b.Y) * height
	dz := (a.Z - b.Z) * width
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// BoundingArea returns the area of the axis-aligned bounding box of a
// landmark set scaled to pixel space. It serves as a coarse size proxy
// for comparing hand and head depth.
func BoundingArea(points []Point3D, width, height float64) (float64, error) {
	if len(points) == 0 {
		return 0, ErrNoLandmarks
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return (maxX - minX) * width * (maxY - minY) * height, nil
}

// EyeLevel returns the pixel y coordinate of the higher of the two
// eyes, pushed down by BrowMargin of the frame height.
func EyeLevel(face *FaceLandmarks, height float64) (float64, error) {
	if face == nil || len(face.Points) == 0 {
		return 0, ErrNoLandmarks
	}

	rightY := face.Point(RightEye).Y
	leftY := face.Point(LeftEye).Y
	return math.Min(rightY, leftY)*height + BrowMargin*height, nil
}
