package detector

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/trichoguard/internal/landmark"
)

func TestMockOracle(t *testing.T) {
	t.Run("returns empty result by default", func(t *testing.T) {
		mock := NewMockOracle()

		result, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(result.Hands) != 0 {
			t.Errorf("expected no hands, got %d", len(result.Hands))
		}
		if result.Face != nil {
			t.Error("expected no face")
		}
	})

	t.Run("returns configured result", func(t *testing.T) {
		mock := NewMockOracle()
		mock.SetResult(&Result{
			Hands: []landmark.HandLandmarks{HandAtForehead()},
			Face:  FrontalFace(),
		})

		result, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(result.Hands) != 1 {
			t.Errorf("expected 1 hand, got %d", len(result.Hands))
		}
		if result.Face == nil {
			t.Error("expected a face")
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockOracle()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		result, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if result != nil {
			t.Errorf("expected nil result when error is set, got %v", result)
		}
	})

	t.Run("implements Oracle interface", func(t *testing.T) {
		var _ Oracle = (*MockOracle)(nil)
	})
}

func TestJSONResponse_ToResult(t *testing.T) {
	line := `{
		"hands": [{
			"points": [{"x": 0.1, "y": 0.2, "z": -0.01}],
			"handedness": "Left",
			"score": 0.88
		}],
		"face": {
			"points": [{"x": 0.5, "y": 0.4, "z": 0.0}, {"x": 0.51, "y": 0.41, "z": 0.0}],
			"score": 0.91
		}
	}`

	var response jsonResponse
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	result := response.toResult()

	if len(result.Hands) != 1 {
		t.Fatalf("expected 1 hand, got %d", len(result.Hands))
	}
	hand := result.Hands[0]
	if hand.Handedness != "Left" || hand.Score != 0.88 {
		t.Errorf("hand metadata = %q/%v, want Left/0.88", hand.Handedness, hand.Score)
	}
	if hand.Points[0].X != 0.1 || hand.Points[0].Y != 0.2 || hand.Points[0].Z != -0.01 {
		t.Errorf("hand point 0 = %+v", hand.Points[0])
	}
	// Unsent points default to the zero value
	if hand.Points[1] != (landmark.Point3D{}) {
		t.Errorf("hand point 1 = %+v, want zero", hand.Points[1])
	}

	if result.Face == nil {
		t.Fatal("expected a face")
	}
	if len(result.Face.Points) != 2 {
		t.Errorf("face points = %d, want 2", len(result.Face.Points))
	}
	if result.Face.Score != 0.91 {
		t.Errorf("face score = %v, want 0.91", result.Face.Score)
	}
}

func TestJSONResponse_NoFace(t *testing.T) {
	var response jsonResponse
	if err := json.Unmarshal([]byte(`{"hands": [], "face": null}`), &response); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	result := response.toResult()
	if result.Face != nil {
		t.Error("expected nil face")
	}
	if len(result.Hands) != 0 {
		t.Errorf("expected no hands, got %d", len(result.Hands))
	}
}

func TestFrontalFaceFixture(t *testing.T) {
	face := FrontalFace()

	if len(face.Points) != landmark.NumFaceLandmarks {
		t.Fatalf("face points = %d, want %d", len(face.Points), landmark.NumFaceLandmarks)
	}
	if face.Points[landmark.Forehead].Y >= face.Points[landmark.RightEye].Y {
		t.Error("forehead should sit above the eyes")
	}
	if face.Points[landmark.Chin].Y <= face.Points[landmark.RightEye].Y {
		t.Error("chin should sit below the eyes")
	}
}

func TestHandFixtures(t *testing.T) {
	face := FrontalFace()

	touching := HandAtForehead()
	if touching.Points[landmark.IndexTip].Y > face.Points[landmark.RightEye].Y {
		t.Error("touching fingertip should be above eye level")
	}

	resting := HandAtRest()
	for i, p := range resting.Points {
		if p.Y < face.Points[landmark.Chin].Y {
			t.Errorf("resting hand point %d at y=%v reaches the face", i, p.Y)
		}
	}
}
