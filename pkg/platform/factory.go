// Package platform picks the window observer and activation backend for the
// current operating system.
package platform

import (
	"runtime"

	"github.com/moview/moview/pkg/activation"
	"github.com/moview/moview/pkg/integrations/darwin"
	"github.com/moview/moview/pkg/integrations/windows"
	"github.com/moview/moview/pkg/integrations/x11"
	"github.com/moview/moview/pkg/window"
)

// NewObserver returns the foreground-window observer for this platform, or
// nil when none exists. A nil observer classifies every poll as the neutral
// snapshot.
func NewObserver() window.Observer {
	switch runtime.GOOS {
	case "darwin":
		return darwin.NewObserver()
	case "windows":
		return windows.NewObserver()
	case "linux":
		obs := x11.NewObserver()
		if obs.IsAvailable() {
			return obs
		}
		return nil
	default:
		return nil
	}
}

// NewBackend returns the activation backend for this platform, or nil when
// context switching is not supported here.
func NewBackend() activation.Backend {
	switch runtime.GOOS {
	case "darwin":
		return darwin.NewActivator()
	case "windows":
		return windows.NewActivator()
	default:
		return nil
	}
}
