package automation

import (
	"log"

	"github.com/pkg/errors"

	"github.com/moview/moview/pkg/activation"
)

// Error kinds surfaced by ActivationResult.Error.
const (
	ErrorKindUnsupportedPlatform = "unsupported-platform"
	ErrorKindAllTargetsFailed    = "all-targets-failed"
)

// ActivationResult is the outcome of one switch attempt.
type ActivationResult struct {
	Success bool               `json:"success"`
	Target  *activation.Target `json:"target,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Coordinator tries an ordered list of work targets against the platform
// activation backend, stopping at the first success.
type Coordinator struct {
	backend activation.Backend
}

func NewCoordinator(backend activation.Backend) *Coordinator {
	return &Coordinator{backend: backend}
}

// ActivateFirstAvailable walks the targets in order and delegates each to the
// backend. Per-target failures are logged and non-fatal; an unsupported
// platform aborts immediately since no later target can fare better.
func (c *Coordinator) ActivateFirstAvailable(targets []activation.Target) ActivationResult {
	if c.backend == nil {
		log.Printf("Context switch skipped: no activation backend for this platform")
		return ActivationResult{Error: ErrorKindUnsupportedPlatform}
	}

	for i := range targets {
		target := targets[i]
		err := c.backend.Activate(target)
		if err == nil {
			log.Printf("Activation succeeded for %s", target.Name)
			return ActivationResult{Success: true, Target: &target}
		}
		if errors.Is(err, activation.ErrUnsupportedPlatform) {
			log.Printf("Context switch aborted: %v", err)
			return ActivationResult{Error: ErrorKindUnsupportedPlatform}
		}
		log.Printf("Activation failed for %s: %v", target.Name, err)
	}

	return ActivationResult{Error: ErrorKindAllTargetsFailed}
}
