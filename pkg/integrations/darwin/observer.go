// Package darwin observes and activates applications on macOS through
// AppleScript (osascript) and Spotlight metadata (mdls).
package darwin

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/moview/moview/pkg/window"
)

const frontmostScript = `
set appName to ""
set windowTitle to ""
set bundleId to ""
set appPath to ""
tell application "System Events"
  set frontProcess to first process whose frontmost is true
  set appName to name of frontProcess
  try
    tell frontProcess
      set windowTitle to name of window 1
    end tell
  end try
  try
    set bundleId to bundle identifier of frontProcess
  end try
  try
    set appPath to POSIX path of (file of frontProcess as alias)
  end try
end tell
return appName & "\n" & windowTitle & "\n" & bundleId & "\n" & appPath
`

// Observer implements window.Observer for macOS
type Observer struct{}

func NewObserver() *Observer {
	return &Observer{}
}

func (o *Observer) IsAvailable() bool {
	return runtime.GOOS == "darwin"
}

func (o *Observer) Platform() string {
	return "darwin"
}

func (o *Observer) Close() error {
	return nil
}

// Poll queries System Events for the frontmost process. Missing fields stay
// empty; a bundle id that looks like a generic wrapper is re-resolved from
// the app bundle on disk.
func (o *Observer) Poll() (*window.Observation, error) {
	output, err := exec.Command("osascript", "-e", frontmostScript).Output()
	if err != nil {
		return nil, err
	}

	lines := strings.SplitN(strings.ReplaceAll(string(output), "\r\n", "\n"), "\n", 4)
	obs := &window.Observation{}
	if len(lines) > 0 {
		obs.Name = strings.TrimSpace(lines[0])
	}
	if len(lines) > 1 {
		obs.Title = strings.TrimSpace(lines[1])
	}
	if len(lines) > 2 {
		obs.BundleID = strings.TrimSpace(lines[2])
	}
	if len(lines) > 3 {
		obs.ProcessPath = strings.TrimSpace(lines[3])
	}

	// Electron wrappers report a placeholder bundle id; resolve the real one
	// from the .app bundle when possible.
	if (obs.BundleID == "" || strings.HasPrefix(obs.BundleID, "com.todesktop")) && obs.ProcessPath != "" {
		if bundlePath := extractAppBundlePath(obs.ProcessPath); bundlePath != "" {
			if resolved := ResolveBundleID(bundlePath); resolved != "" {
				obs.BundleID = resolved
			}
		}
	}

	if obs.Name == "" && obs.Title == "" && obs.ProcessPath == "" {
		return nil, nil
	}
	return obs, nil
}

// extractAppBundlePath truncates an executable path inside a .app bundle to
// the bundle root.
func extractAppBundlePath(filePath string) string {
	if filePath == "" {
		return ""
	}
	if strings.HasSuffix(filePath, ".app") {
		return filePath
	}
	if idx := strings.Index(filePath, ".app/"); idx != -1 {
		return filePath[:idx+4]
	}
	if idx := strings.Index(filePath, ".app"); idx != -1 {
		return filePath[:idx+4]
	}
	return ""
}

// ResolveBundleID looks up the CFBundleIdentifier of an app bundle via mdls.
func ResolveBundleID(appPath string) string {
	output, err := exec.Command("mdls", "-name", "kMDItemCFBundleIdentifier", "-raw", appPath).Output()
	if err != nil {
		return ""
	}
	identifier := strings.TrimSpace(string(output))
	if identifier == "" || identifier == "(null)" {
		return ""
	}
	return identifier
}
