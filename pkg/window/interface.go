package window

// Observation holds the raw attributes of the currently focused window as
// reported by a platform observer. Fields the platform cannot provide are
// left empty.
type Observation struct {
	Name        string
	Title       string
	BundleID    string
	ProcessPath string
}

// Observer is the interface that all foreground-window observers must satisfy.
// Poll is best-effort: a nil observation with a nil error means no window
// information is available right now (locked screen, no focus, unsupported
// desktop), which callers treat as a neutral result.
type Observer interface {
	// Poll returns information about the currently focused window
	Poll() (*Observation, error)

	// IsAvailable checks if this observer can run on the current system
	IsAvailable() bool

	// Platform returns the platform identifier ("x11", "darwin", "windows")
	Platform() string

	// Close cleans up any resources used by the observer
	Close() error
}
