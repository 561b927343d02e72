// Package monitor runs the polling loops that feed the automation engine:
// a fixed-interval foreground-window poller and a presence poller whose
// interval follows the sampleIntervalMs setting at runtime.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/moview/moview/internal/automation"
	"github.com/moview/moview/internal/config"
	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/vision"
	"github.com/moview/moview/pkg/window"
)

type Service struct {
	config   *config.Config
	store    *settings.Store
	engine   *automation.Engine
	observer window.Observer
	frames   vision.Source
	detector vision.Detector

	stopChan    chan struct{}
	reconfigure chan time.Duration
	running     bool

	windowFailing   bool
	presenceFailing bool
}

// NewService wires the pollers. observer, frames and detector may each be nil
// when the corresponding sensor is unavailable on this platform; the service
// then feeds the engine neutral updates so it still produces a best-effort
// state.
func NewService(cfg *config.Config, store *settings.Store, engine *automation.Engine,
	observer window.Observer, frames vision.Source, detector vision.Detector) *Service {
	s := &Service{
		config:      cfg,
		store:       store,
		engine:      engine,
		observer:    observer,
		frames:      frames,
		detector:    detector,
		stopChan:    make(chan struct{}),
		reconfigure: make(chan time.Duration, 1),
	}

	store.OnChange(func(next settings.AppSettings) {
		interval := time.Duration(next.Detection.SampleIntervalMs) * time.Millisecond
		select {
		case s.reconfigure <- interval:
		default:
		}
	})

	return s
}

// Start runs both pollers until the context is cancelled or Stop is called.
// Both producers share one goroutine, so the engine sees at most one tick in
// flight at a time.
func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return fmt.Errorf("monitor is already running")
	}
	s.running = true

	sampleInterval := time.Duration(s.store.Get().Detection.SampleIntervalMs) * time.Millisecond
	log.Printf("Starting monitor: window poll %v, presence poll %v",
		s.config.Monitor.WindowPollInterval, sampleInterval)

	windowTicker := time.NewTicker(s.config.Monitor.WindowPollInterval)
	defer windowTicker.Stop()
	presenceTicker := time.NewTicker(sampleInterval)
	defer presenceTicker.Stop()

	s.pollWindow()
	s.pollPresence()

	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor stopped by context")
			s.running = false
			return ctx.Err()

		case <-s.stopChan:
			log.Println("Monitor stopped")
			s.running = false
			return nil

		case interval := <-s.reconfigure:
			if interval > 0 && interval != sampleInterval {
				sampleInterval = interval
				presenceTicker.Reset(interval)
				log.Printf("Presence poll interval changed to %v", interval)
			}

		case <-windowTicker.C:
			s.pollWindow()

		case <-presenceTicker.C:
			s.pollPresence()
		}
	}
}

func (s *Service) Stop() {
	if s.running {
		close(s.stopChan)
	}
}

func (s *Service) IsRunning() bool {
	return s.running
}

func (s *Service) pollWindow() {
	if s.observer == nil || !s.observer.IsAvailable() {
		s.engine.OnWindowUpdate(nil)
		return
	}

	obs, err := s.observer.Poll()
	if err != nil {
		// Report the first failure of a streak, then stay quiet until the
		// observer recovers.
		if !s.windowFailing {
			s.windowFailing = true
			s.engine.ReportWarning(fmt.Sprintf("window observation failed: %v", err))
		}
		s.engine.OnWindowUpdate(nil)
		return
	}

	s.windowFailing = false
	s.engine.OnWindowUpdate(obs)
}

func (s *Service) pollPresence() {
	if s.frames == nil {
		s.engine.OnPresenceUpdate(nil)
		return
	}

	frame, err := s.frames.Capture()
	if err != nil {
		if !s.presenceFailing {
			s.presenceFailing = true
			s.engine.ReportWarning(fmt.Sprintf("camera capture failed: %v", err))
		}
		s.engine.OnPresenceUpdate(nil)
		return
	}
	s.presenceFailing = false

	if s.detector != nil {
		detections, err := s.detector.Detect(frame)
		if err != nil {
			s.engine.ReportWarning(fmt.Sprintf("detector failed: %v", err))
		} else {
			frame.Detections = detections
		}
	}

	s.engine.OnPresenceUpdate(frame)
}

// CaptureSafeFace grabs a frame, extracts the best face descriptor and stores
// it as a new safe-face profile under the given label.
func (s *Service) CaptureSafeFace(label string) (settings.SafeFaceProfile, error) {
	if s.frames == nil || s.detector == nil {
		return settings.SafeFaceProfile{}, errors.New("no camera or detector available")
	}

	frame, err := s.frames.Capture()
	if err != nil {
		return settings.SafeFaceProfile{}, errors.Wrap(err, "failed to capture frame")
	}

	embedding, err := s.detector.CaptureEmbedding(frame)
	if err != nil {
		return settings.SafeFaceProfile{}, err
	}

	profile := settings.NormalizeSafeFace(settings.SafeFaceProfile{
		Label:      label,
		Descriptor: embedding,
	})

	current := s.store.Get()
	current.Detection.SafeFaces = append(current.Detection.SafeFaces, profile)
	if err := s.store.Set(current); err != nil {
		return settings.SafeFaceProfile{}, errors.Wrap(err, "failed to store safe face")
	}

	log.Printf("Captured safe face %q (%s)", profile.Label, profile.ID)
	return profile, nil
}
