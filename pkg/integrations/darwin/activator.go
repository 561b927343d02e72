package darwin

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/moview/moview/pkg/activation"
)

// Activator implements activation.Backend for macOS
type Activator struct{}

func NewActivator() *Activator {
	return &Activator{}
}

func (a *Activator) Platform() string {
	return "darwin"
}

// Activate brings the target to the foreground: launch or reopen via its
// bundle id (or app name), raise the process and zoom or fullscreen its
// first window.
func (a *Activator) Activate(target activation.Target) error {
	if runtime.GOOS != "darwin" {
		return activation.ErrUnsupportedPlatform
	}

	processName := target.MacProcessName
	if processName == "" {
		processName = target.Name
	}

	appReference := fmt.Sprintf(`application "%s"`, escapeAppleScript(target.Name))
	if target.MacBundleID != "" {
		appReference = fmt.Sprintf(`application id "%s"`, escapeAppleScript(target.MacBundleID))
	}

	script := fmt.Sprintf(`
if application "System Events" is not running then
  tell application "System Events" to launch
end if
tell %s
  activate
  reopen
end tell
delay 0.1
tell application "System Events"
  if not (exists process "%s") then return
  tell process "%s"
    set frontmost to true
    try
      repeat with w in windows
        if exists attribute "AXFullScreen" of w then
          set value of attribute "AXFullScreen" of w to true
        else
          tell w to perform action "AXZoom"
        end if
        exit repeat
      end repeat
    end try
  end tell
end tell
`, appReference, escapeAppleScript(processName), escapeAppleScript(processName))

	if output, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		return errors.Wrapf(activation.ErrUnreachable, "osascript failed for %s: %v (%s)",
			target.Name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func escapeAppleScript(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(escaped, `"`, `\"`)
}
