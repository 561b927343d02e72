// Package automation owns the debounced, cooldown-gated trigger state machine
// that decides when a visitor detection turns into a context switch.
package automation

import (
	"log"
	"sync"
	"time"

	"github.com/moview/moview/internal/appwatch"
	"github.com/moview/moview/internal/presence"
	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/activation"
	"github.com/moview/moview/pkg/vision"
	"github.com/moview/moview/pkg/window"
)

// Engine keeps at most this many recent warnings in its state.
const maxRetainedErrors = 5

// State is the externally observable automation state. It is rebuilt from the
// latest snapshots on every evaluation, never incrementally patched.
type State struct {
	Presence       presence.Snapshot  `json:"presence"`
	ActiveApp      *appwatch.Snapshot `json:"activeApp,omitempty"`
	LastSwitchAt   *int64             `json:"lastSwitchAt,omitempty"` // unix milliseconds
	CooldownActive bool               `json:"cooldownActive"`
	Errors         []string           `json:"errors"`
}

// SettingsSource supplies the current sanitized configuration snapshot.
type SettingsSource interface {
	Get() settings.AppSettings
}

// Switcher hands an ordered target list to the activation layer.
type Switcher interface {
	ActivateFirstAvailable(targets []activation.Target) ActivationResult
}

// Recorder persists switch outcomes and warnings. Implementations must not
// call back into the engine.
type Recorder interface {
	RecordSwitch(trigger string, result ActivationResult)
	RecordError(message string)
}

// Engine fuses presence and window snapshots over time and fires context
// switches. It exclusively owns the visitor-frame streak and the last-switch
// timestamp; all ingestion entry points serialize on its mutex.
type Engine struct {
	source   SettingsSource
	switcher Switcher
	recorder Recorder

	mu           sync.Mutex
	evaluator    *presence.Evaluator
	presence     presence.Snapshot
	activeApp    *appwatch.Snapshot
	streak       int
	lastSwitchAt time.Time
	warnings     []string
	listeners    []func(State)

	now func() time.Time
}

// NewEngine builds an engine. recorder may be nil when no persistence is
// wired (e.g. in tests).
func NewEngine(source SettingsSource, switcher Switcher, recorder Recorder) *Engine {
	return &Engine{
		source:    source,
		switcher:  switcher,
		recorder:  recorder,
		evaluator: presence.NewEvaluator(),
		now:       time.Now,
	}
}

// OnPresenceUpdate ingests one raw camera frame: fuses it into a presence
// snapshot, advances the visitor streak and re-evaluates the trigger.
func (e *Engine) OnPresenceUpdate(frame *vision.Frame) {
	cfg := e.source.Get()

	e.mu.Lock()
	snapshot := e.evaluator.Evaluate(frame, cfg.Detection, e.now())
	e.presence = snapshot
	if snapshot.HasVisitor {
		e.streak++
	} else {
		e.streak = 0
	}
	e.maybeTriggerLocked(cfg)
	state := e.stateLocked(cfg)
	listeners := e.listenersLocked()
	e.mu.Unlock()

	notify(listeners, state)
}

// OnWindowUpdate ingests one raw foreground-window observation. A nil
// observation classifies to the neutral snapshot.
func (e *Engine) OnWindowUpdate(obs *window.Observation) {
	cfg := e.source.Get()

	e.mu.Lock()
	snapshot := appwatch.Classify(obs, cfg.Apps, e.now())
	e.activeApp = &snapshot
	e.maybeTriggerLocked(cfg)
	state := e.stateLocked(cfg)
	listeners := e.listenersLocked()
	e.mu.Unlock()

	notify(listeners, state)
}

// ReportWarning surfaces a degraded-sensor condition in the automation state
// without interrupting the loop.
func (e *Engine) ReportWarning(message string) {
	cfg := e.source.Get()

	e.mu.Lock()
	e.warnings = append(e.warnings, message)
	if len(e.warnings) > maxRetainedErrors {
		e.warnings = e.warnings[len(e.warnings)-maxRetainedErrors:]
	}
	state := e.stateLocked(cfg)
	listeners := e.listenersLocked()
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.RecordError(message)
	}
	notify(listeners, state)
}

// State returns the current automation state.
func (e *Engine) State() State {
	cfg := e.source.Get()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(cfg)
}

// ForceSwitch triggers a manual context switch, bypassing the streak and
// cooldown gates. A success still re-arms the cooldown for subsequent
// automatic triggers.
func (e *Engine) ForceSwitch() ActivationResult {
	cfg := e.source.Get()
	result := e.switcher.ActivateFirstAvailable(cfg.Apps.WorkTargets)

	e.mu.Lock()
	if result.Success {
		e.lastSwitchAt = e.now()
	}
	state := e.stateLocked(cfg)
	listeners := e.listenersLocked()
	e.mu.Unlock()

	if e.recorder != nil {
		e.recorder.RecordSwitch("manual", result)
	}
	notify(listeners, state)
	return result
}

// OnStateChanged registers a push observer. Listeners run in registration
// order after every state evaluation.
func (e *Engine) OnStateChanged(listener func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// maybeTriggerLocked evaluates the trigger condition: auto-switch enabled,
// cooldown inactive, visitor streak at the debounce threshold and a game in
// the foreground. A successful activation starts the cooldown; a total
// failure leaves it unset so the next eligible tick retries.
func (e *Engine) maybeTriggerLocked(cfg settings.AppSettings) {
	det := cfg.Detection
	if !det.EnableAutoSwitch {
		return
	}
	if e.cooldownActiveLocked(det) {
		return
	}
	if !e.presence.HasVisitor || e.streak < det.FramesBeforeTrigger {
		return
	}
	if e.activeApp == nil || !e.activeApp.IsGameActive {
		return
	}

	result := e.switcher.ActivateFirstAvailable(cfg.Apps.WorkTargets)
	if result.Success {
		e.lastSwitchAt = e.now()
		if result.Target != nil {
			log.Printf("Switch triggered, activated %s", result.Target.Name)
		}
	} else {
		log.Printf("No work target succeeded: %s", result.Error)
	}

	if e.recorder != nil {
		e.recorder.RecordSwitch("auto", result)
	}
}

func (e *Engine) cooldownActiveLocked(det settings.DetectionSettings) bool {
	if e.lastSwitchAt.IsZero() {
		return false
	}
	cooldown := time.Duration(det.CooldownSeconds) * time.Second
	return e.now().Sub(e.lastSwitchAt) < cooldown
}

func (e *Engine) stateLocked(cfg settings.AppSettings) State {
	state := State{
		Presence:       e.presence,
		ActiveApp:      e.activeApp,
		CooldownActive: e.cooldownActiveLocked(cfg.Detection),
		Errors:         append([]string{}, e.warnings...),
	}
	if !e.lastSwitchAt.IsZero() {
		ms := e.lastSwitchAt.UnixMilli()
		state.LastSwitchAt = &ms
	}
	return state
}

func (e *Engine) listenersLocked() []func(State) {
	return append([]func(State){}, e.listeners...)
}

func notify(listeners []func(State), state State) {
	for _, listener := range listeners {
		listener(state)
	}
}
