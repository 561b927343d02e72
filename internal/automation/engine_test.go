package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/activation"
	"github.com/moview/moview/pkg/vision"
	"github.com/moview/moview/pkg/window"
)

type staticSource struct {
	cfg settings.AppSettings
}

func (s *staticSource) Get() settings.AppSettings { return s.cfg }

type countingSwitcher struct {
	calls   int
	targets [][]activation.Target
	result  ActivationResult
}

func (s *countingSwitcher) ActivateFirstAvailable(targets []activation.Target) ActivationResult {
	s.calls++
	s.targets = append(s.targets, targets)
	return s.result
}

type recordedSwitch struct {
	trigger string
	result  ActivationResult
}

type memoryRecorder struct {
	switches []recordedSwitch
	errors   []string
}

func (r *memoryRecorder) RecordSwitch(trigger string, result ActivationResult) {
	r.switches = append(r.switches, recordedSwitch{trigger: trigger, result: result})
}

func (r *memoryRecorder) RecordError(message string) {
	r.errors = append(r.errors, message)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func triggerSettings() settings.AppSettings {
	cfg := settings.Default()
	cfg.Detection.EnableAutoSwitch = true
	cfg.Detection.PresenceThreshold = 0.6
	cfg.Detection.FramesBeforeTrigger = 2
	cfg.Detection.CooldownSeconds = 15
	cfg.Apps.ListMode = settings.ModeBlacklist
	cfg.Apps.MatchStrategy = settings.MatchAny
	cfg.Apps.GameBlacklist = []string{"steam"}
	cfg.Apps.WorkTargets = []activation.Target{{Name: "editor", MacBundleID: "com.example.editor"}}
	return cfg
}

func newTestEngine(cfg settings.AppSettings, switcher *countingSwitcher, recorder *memoryRecorder) (*Engine, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	var rec Recorder
	if recorder != nil {
		rec = recorder
	}
	engine := NewEngine(&staticSource{cfg: cfg}, switcher, rec)
	engine.now = clock.Now
	return engine, clock
}

func visitorFrame() *vision.Frame {
	return &vision.Frame{
		Detections: vision.Detections{Bodies: []vision.BodyObservation{{Confidence: 0.9}}},
	}
}

func emptyFrame() *vision.Frame {
	return &vision.Frame{}
}

func gameWindow() *window.Observation {
	return &window.Observation{Name: "Steam", Title: "Some Game"}
}

func TestEngineFiresAfterStreakThreshold(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{
		Success: true,
		Target:  &activation.Target{Name: "editor"},
	}}
	recorder := &memoryRecorder{}
	engine, _ := newTestEngine(triggerSettings(), switcher, recorder)

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 0, switcher.calls, "one visitor frame is below the debounce threshold")

	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 1, switcher.calls)

	require.Len(t, recorder.switches, 1)
	assert.Equal(t, "auto", recorder.switches[0].trigger)
	assert.True(t, recorder.switches[0].result.Success)

	state := engine.State()
	assert.True(t, state.CooldownActive)
	require.NotNil(t, state.LastSwitchAt)
}

func TestEngineStreakResetsOnEmptyFrame(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, _ := newTestEngine(triggerSettings(), switcher, nil)

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(emptyFrame())
	engine.OnPresenceUpdate(visitorFrame())

	assert.Equal(t, 0, switcher.calls, "streak must restart after a visitor-free frame")
}

func TestEngineCooldownGatesSecondTrigger(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, clock := newTestEngine(triggerSettings(), switcher, nil)

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())
	require.Equal(t, 1, switcher.calls)

	// Still inside the 15s cooldown window.
	clock.Advance(14999 * time.Millisecond)
	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 1, switcher.calls)
	assert.True(t, engine.State().CooldownActive)

	// Just past the window: the streak is still running, so it fires again.
	clock.Advance(2 * time.Millisecond)
	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 2, switcher.calls)
}

func TestEngineFailureDoesNotStartCooldown(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Error: ErrorKindAllTargetsFailed}}
	recorder := &memoryRecorder{}
	engine, _ := newTestEngine(triggerSettings(), switcher, recorder)

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())
	require.Equal(t, 1, switcher.calls)
	assert.False(t, engine.State().CooldownActive)
	assert.Nil(t, engine.State().LastSwitchAt)

	// The very next eligible tick retries without waiting out a cooldown.
	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 2, switcher.calls)

	require.Len(t, recorder.switches, 2)
	assert.Equal(t, "auto", recorder.switches[0].trigger)
	assert.False(t, recorder.switches[0].result.Success)
}

func TestEngineRequiresGameForeground(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, _ := newTestEngine(triggerSettings(), switcher, nil)

	// Work app in the foreground: visitors alone never trigger.
	engine.OnWindowUpdate(&window.Observation{Name: "Code", Title: "main.go"})
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())

	assert.Equal(t, 0, switcher.calls)
}

func TestEngineDisabledAutoSwitch(t *testing.T) {
	cfg := triggerSettings()
	cfg.Detection.EnableAutoSwitch = false
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, _ := newTestEngine(cfg, switcher, nil)

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())

	assert.Equal(t, 0, switcher.calls)
}

func TestEngineWindowUpdateCanFireWithStandingStreak(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, _ := newTestEngine(triggerSettings(), switcher, nil)

	// Streak reaches the threshold while a work app is focused.
	engine.OnPresenceUpdate(visitorFrame())
	engine.OnPresenceUpdate(visitorFrame())
	assert.Equal(t, 0, switcher.calls)

	// Focus moves to a game: the standing streak fires on the window poll.
	engine.OnWindowUpdate(gameWindow())
	assert.Equal(t, 1, switcher.calls)
}

func TestForceSwitchBypassesGatesAndArmsCooldown(t *testing.T) {
	cfg := triggerSettings()
	cfg.Detection.EnableAutoSwitch = false
	switcher := &countingSwitcher{result: ActivationResult{
		Success: true,
		Target:  &activation.Target{Name: "editor"},
	}}
	recorder := &memoryRecorder{}
	engine, _ := newTestEngine(cfg, switcher, recorder)

	result := engine.ForceSwitch()

	assert.True(t, result.Success)
	assert.Equal(t, 1, switcher.calls)
	assert.True(t, engine.State().CooldownActive)

	require.Len(t, recorder.switches, 1)
	assert.Equal(t, "manual", recorder.switches[0].trigger)
}

func TestForceSwitchFailureLeavesCooldownUnset(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Error: ErrorKindAllTargetsFailed}}
	engine, _ := newTestEngine(triggerSettings(), switcher, nil)

	result := engine.ForceSwitch()

	assert.False(t, result.Success)
	assert.False(t, engine.State().CooldownActive)
	assert.Nil(t, engine.State().LastSwitchAt)
}

func TestEngineReportWarningRetainsRecent(t *testing.T) {
	recorder := &memoryRecorder{}
	engine, _ := newTestEngine(triggerSettings(), &countingSwitcher{}, recorder)

	engine.ReportWarning("camera unavailable")
	engine.ReportWarning("window observer failed")
	for i := 0; i < maxRetainedErrors; i++ {
		engine.ReportWarning("frame decode failed")
	}

	state := engine.State()
	assert.Len(t, state.Errors, maxRetainedErrors)
	assert.Equal(t, "frame decode failed", state.Errors[len(state.Errors)-1])
	assert.Len(t, recorder.errors, maxRetainedErrors+2)
}

func TestEngineNotifiesListeners(t *testing.T) {
	switcher := &countingSwitcher{result: ActivationResult{Success: true}}
	engine, _ := newTestEngine(triggerSettings(), switcher, nil)

	var states []State
	engine.OnStateChanged(func(state State) { states = append(states, state) })

	engine.OnWindowUpdate(gameWindow())
	engine.OnPresenceUpdate(visitorFrame())

	require.Len(t, states, 2)
	assert.True(t, states[1].Presence.HasVisitor)
	require.NotNil(t, states[0].ActiveApp)
	assert.True(t, states[0].ActiveApp.IsGameActive)
}
