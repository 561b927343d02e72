package platform

import (
	"runtime"
	"testing"
)

func TestNewObserver(t *testing.T) {
	observer := NewObserver()
	if observer == nil {
		t.Logf("No window observer for %s (headless or unsupported)", runtime.GOOS)
		return
	}
	defer observer.Close()

	t.Logf("Observer platform: %s", observer.Platform())
	t.Logf("Observer available: %v", observer.IsAvailable())
}

func TestNewBackend(t *testing.T) {
	backend := NewBackend()
	if backend == nil {
		t.Logf("No activation backend for %s", runtime.GOOS)
		return
	}

	if backend.Platform() != runtime.GOOS {
		t.Errorf("Platform() = %s, want %s", backend.Platform(), runtime.GOOS)
	}
}
