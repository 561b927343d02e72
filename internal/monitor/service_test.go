package monitor

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moview/moview/internal/automation"
	"github.com/moview/moview/internal/config"
	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/activation"
	"github.com/moview/moview/pkg/vision"
	"github.com/moview/moview/pkg/window"
)

type fakeObserver struct {
	observation *window.Observation
	err         error
}

func (f *fakeObserver) Poll() (*window.Observation, error) { return f.observation, f.err }
func (f *fakeObserver) IsAvailable() bool                  { return true }
func (f *fakeObserver) Platform() string                   { return "test" }
func (f *fakeObserver) Close() error                       { return nil }

type fakeSource struct {
	frame *vision.Frame
	err   error
}

func (f *fakeSource) Capture() (*vision.Frame, error) { return f.frame, f.err }
func (f *fakeSource) Close() error                    { return nil }

type fakeDetector struct {
	detections vision.Detections
	embedding  []float64
	detectErr  error
	embedErr   error
}

func (f *fakeDetector) Detect(frame *vision.Frame) (vision.Detections, error) {
	return f.detections, f.detectErr
}

func (f *fakeDetector) CaptureEmbedding(frame *vision.Frame) ([]float64, error) {
	return f.embedding, f.embedErr
}

type noopSwitcher struct{}

func (noopSwitcher) ActivateFirstAvailable(targets []activation.Target) automation.ActivationResult {
	return automation.ActivationResult{Error: automation.ErrorKindAllTargetsFailed}
}

func newTestService(t *testing.T, observer window.Observer, frames vision.Source, detector vision.Detector) (*Service, *automation.Engine, *settings.Store) {
	t.Helper()

	store, err := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := automation.NewEngine(store, noopSwitcher{}, nil)
	service := NewService(config.Default(), store, engine, observer, frames, detector)
	return service, engine, store
}

func TestPollWindowFeedsEngine(t *testing.T) {
	observer := &fakeObserver{observation: &window.Observation{Name: "Steam", Title: "Game"}}
	service, engine, _ := newTestService(t, observer, nil, nil)

	service.pollWindow()

	state := engine.State()
	require.NotNil(t, state.ActiveApp)
	assert.Equal(t, "Steam", state.ActiveApp.Name)
}

func TestPollWindowNilObserverIsNeutral(t *testing.T) {
	service, engine, _ := newTestService(t, nil, nil, nil)

	service.pollWindow()

	state := engine.State()
	require.NotNil(t, state.ActiveApp)
	assert.False(t, state.ActiveApp.IsGameActive)
	assert.Empty(t, state.ActiveApp.Name)
}

func TestPollWindowReportsFirstFailureOnly(t *testing.T) {
	observer := &fakeObserver{err: errors.New("connection lost")}
	service, engine, _ := newTestService(t, observer, nil, nil)

	service.pollWindow()
	service.pollWindow()
	service.pollWindow()

	assert.Len(t, engine.State().Errors, 1)

	// Recovery clears the streak; a later failure is reported again.
	observer.err = nil
	observer.observation = &window.Observation{Name: "Code"}
	service.pollWindow()

	observer.err = errors.New("connection lost again")
	service.pollWindow()
	assert.Len(t, engine.State().Errors, 2)
}

func TestPollPresenceAttachesDetections(t *testing.T) {
	frames := &fakeSource{frame: &vision.Frame{}}
	detector := &fakeDetector{detections: vision.Detections{
		Bodies: []vision.BodyObservation{{Confidence: 0.9}},
	}}
	service, engine, _ := newTestService(t, nil, frames, detector)

	service.pollPresence()

	state := engine.State()
	assert.True(t, state.Presence.HasVisitor)
	assert.Equal(t, 0.9, state.Presence.Confidence)
}

func TestPollPresenceCaptureFailureIsNeutral(t *testing.T) {
	frames := &fakeSource{err: errors.New("camera busy")}
	service, engine, _ := newTestService(t, nil, frames, nil)

	service.pollPresence()
	service.pollPresence()

	state := engine.State()
	assert.False(t, state.Presence.HasVisitor)
	assert.Len(t, state.Errors, 1)
}

func TestCaptureSafeFace(t *testing.T) {
	frames := &fakeSource{frame: &vision.Frame{}}
	detector := &fakeDetector{embedding: []float64{0.1, 0.2, 0.3}}
	service, _, store := newTestService(t, nil, frames, detector)

	profile, err := service.CaptureSafeFace("Me")
	require.NoError(t, err)

	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "Me", profile.Label)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, profile.Descriptor)

	saved := store.Get().Detection.SafeFaces
	require.Len(t, saved, 1)
	assert.Equal(t, profile.ID, saved[0].ID)
}

func TestCaptureSafeFaceWithoutCamera(t *testing.T) {
	service, _, _ := newTestService(t, nil, nil, nil)

	_, err := service.CaptureSafeFace("Me")
	assert.Error(t, err)
}

func TestCaptureSafeFaceNoFace(t *testing.T) {
	frames := &fakeSource{frame: &vision.Frame{}}
	detector := &fakeDetector{embedErr: vision.ErrNoFaceDetected}
	service, _, _ := newTestService(t, nil, frames, detector)

	_, err := service.CaptureSafeFace("Me")
	assert.ErrorIs(t, err, vision.ErrNoFaceDetected)
}
