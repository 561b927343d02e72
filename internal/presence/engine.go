// Package presence fuses per-frame face, body and motion signals into a
// single visitor-presence verdict.
package presence

import (
	"time"

	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/vision"
)

// Faces with detector scores at or below this are treated as noise.
const minFaceScore = 0.3

// Snapshot is the fused presence verdict for one frame. Transient: replaced
// on every tick, never persisted.
type Snapshot struct {
	Confidence     float64  `json:"confidence"`
	HasVisitor     bool     `json:"hasVisitor"`
	RecognizedSafe bool     `json:"recognizedSafe"`
	MovementScore  float64  `json:"movementScore"`
	MatchedSafeIDs []string `json:"matchedSafeIds"`
	LastUpdated    int64    `json:"lastUpdated"` // unix milliseconds
}

// Evaluator runs the fusion algorithm. It owns the retained motion raster
// from the previous tick and is not safe for concurrent use.
type Evaluator struct {
	prevRaster []uint8
}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Reset drops the retained motion raster, e.g. after the camera source or
// the motion region changed.
func (e *Evaluator) Reset() {
	e.prevRaster = nil
}

// Evaluate fuses the detections and pixels of one frame into a presence
// snapshot. A nil frame yields the degraded no-visitor snapshot.
func (e *Evaluator) Evaluate(frame *vision.Frame, det settings.DetectionSettings, now time.Time) Snapshot {
	snapshot := Snapshot{
		MatchedSafeIDs: []string{},
		LastUpdated:    now.UnixMilli(),
	}
	if frame == nil {
		return snapshot
	}

	faces := retainedFaces(frame.Detections.Faces)
	bodies := frame.Detections.Bodies

	confidence := 0.0
	for _, face := range faces {
		if face.Confidence > confidence {
			confidence = face.Confidence
		}
	}
	for _, body := range bodies {
		if body.Confidence > confidence {
			confidence = body.Confidence
		}
	}

	matched := matchSafeFaces(faces, det.SafeFaces, det.FaceRecognitionThreshold)

	unknownFaceCount := len(faces) - matched.count
	if unknownFaceCount < 0 {
		unknownFaceCount = 0
	}
	maxAccounted := matched.count
	if len(faces) > maxAccounted {
		maxAccounted = len(faces)
	}
	extraBodiesPresent := len(bodies) > maxAccounted

	movementScore := e.movementScore(frame, det)

	movementTrigger := movementScore >= det.MotionSensitivity
	faceOrBodyTrigger := confidence >= det.PresenceThreshold
	// Face/body confidence only suggests a visitor when it cannot be fully
	// attributed to recognized safe faces.
	faceOrBodySuggestsVisitor := faceOrBodyTrigger &&
		(unknownFaceCount > 0 || extraBodiesPresent || !matched.recognized)

	snapshot.Confidence = confidence
	snapshot.HasVisitor = movementTrigger || faceOrBodySuggestsVisitor
	snapshot.RecognizedSafe = matched.recognized
	snapshot.MovementScore = movementScore
	snapshot.MatchedSafeIDs = matched.profileIDs
	return snapshot
}

func retainedFaces(faces []vision.FaceObservation) []vision.FaceObservation {
	out := make([]vision.FaceObservation, 0, len(faces))
	for _, face := range faces {
		if face.Confidence > minFaceScore {
			out = append(out, face)
		}
	}
	return out
}

type matchResult struct {
	recognized bool
	count      int
	profileIDs []string
}

// matchSafeFaces compares every face embedding against every stored safe-face
// descriptor. A face counts as matched when its best-scoring profile reaches
// the recognition threshold.
func matchSafeFaces(faces []vision.FaceObservation, profiles []settings.SafeFaceProfile, threshold float64) matchResult {
	result := matchResult{profileIDs: []string{}}
	if len(faces) == 0 || len(profiles) == 0 {
		return result
	}

	seen := make(map[string]struct{})
	for _, face := range faces {
		if len(face.Embedding) == 0 {
			continue
		}

		bestScore := -1.0
		bestID := ""
		for _, profile := range profiles {
			score := CosineSimilarity(face.Embedding, profile.Descriptor)
			if score > bestScore {
				bestScore = score
				bestID = profile.ID
			}
		}

		if bestID != "" && bestScore >= threshold {
			result.recognized = true
			result.count++
			if _, ok := seen[bestID]; !ok {
				seen[bestID] = struct{}{}
				result.profileIDs = append(result.profileIDs, bestID)
			}
		}
	}
	return result
}
