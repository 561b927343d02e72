package activation

import "github.com/pkg/errors"

var (
	// ErrUnsupportedPlatform means no activation backend exists for the
	// current OS. Retrying other targets is pointless.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrUnreachable means the target application could not be focused or
	// launched. The coordinator moves on to the next candidate.
	ErrUnreachable = errors.New("target not reachable")
)

// Target identifies one work application the switcher may bring to the
// foreground. At least one of Name, MacBundleID or WinCommand must be set for
// the target to be usable.
type Target struct {
	Name           string   `json:"name"`
	MacBundleID    string   `json:"macBundleId,omitempty"`
	MacProcessName string   `json:"macProcessName,omitempty"`
	WinCommand     string   `json:"winCommand,omitempty"`
	WinProcessName string   `json:"winProcessName,omitempty"`
	Args           []string `json:"args,omitempty"`
}

// Backend focuses or launches a single target. Implementations shell out to
// platform scripting (osascript, powershell) and are best-effort.
type Backend interface {
	Activate(target Target) error
	Platform() string
}
