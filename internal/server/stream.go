package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the MJPEG stream at roughly the capture rate.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the annotated detection frames as MJPEG.
type StreamHandler struct {
	pipeline Pipeline
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(pipeline Pipeline) *StreamHandler {
	return &StreamHandler{pipeline: pipeline}
}

// ServeHTTP streams MJPEG frames to connected clients. Frames come
// from the pipeline's published snapshot, so the stream never competes
// with the detection loop for the camera.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame := h.pipeline.Frame()
		if frame == nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		if _, err := w.Write(frame); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
