package vision

import "github.com/pkg/errors"

// ErrNoFaceDetected is returned by capture-style helpers when no usable face
// is present in the frame.
var ErrNoFaceDetected = errors.New("no usable face detected")

// FaceObservation is a single detected face. Embedding is empty when the
// detector backend does not produce descriptors.
type FaceObservation struct {
	Confidence float64
	Embedding  []float64
}

// BodyObservation is a single detected body.
type BodyObservation struct {
	Confidence float64
}

// Detections is the per-frame output of a detector backend.
type Detections struct {
	Faces  []FaceObservation
	Bodies []BodyObservation
}

// Frame is one captured video frame in RGBA byte order, plus the detector
// output computed for it. Pixels may be nil when the camera is degraded; the
// presence engine then reports zero movement.
type Frame struct {
	Width  int
	Height int
	Pixels []uint8

	Detections Detections
}

// Detector runs face/body inference on a frame. Implementations live outside
// this repository (the daemon is handed frames that already carry detections
// in the common case); the interface exists so an embedding process can plug
// its own backend into the monitor loop.
type Detector interface {
	Detect(frame *Frame) (Detections, error)

	// CaptureEmbedding extracts the descriptor of the most confident face in
	// the frame, for enrolling a safe-face profile. Returns ErrNoFaceDetected
	// when no face scores high enough or no descriptor is available.
	CaptureEmbedding(frame *Frame) ([]float64, error)
}

// Source produces frames for the presence poller.
type Source interface {
	Capture() (*Frame, error)
	Close() error
}
