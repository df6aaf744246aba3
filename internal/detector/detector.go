// Package detector provides hand and face landmark detection backed by
// a MediaPipe subprocess.
package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/trichoguard/internal/landmark"
)

// Result holds the landmarks detected in one frame. Face is nil when
// no face was found.
type Result struct {
	Hands []landmark.HandLandmarks
	Face  *landmark.FaceLandmarks
}

// Oracle defines the interface for landmark detection implementations.
type Oracle interface {
	// Detect analyzes a video frame and returns the detected hand and
	// face landmarks. Returns an empty result if nothing is detected.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// HandConfidence is the minimum hand detection confidence (0.0-1.0).
	HandConfidence float64

	// FaceConfidence is the minimum face detection confidence (0.0-1.0).
	FaceConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:       2,
		HandConfidence: 0.7,
		FaceConfidence: 0.5,
	}
}
