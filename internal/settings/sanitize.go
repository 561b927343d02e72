package settings

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moview/moview/pkg/activation"
)

const unnamedProfileLabel = "Unnamed"

// Sanitize coerces a settings snapshot into legal ranges. It is total (never
// fails) and idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(in AppSettings) AppSettings {
	return AppSettings{
		Detection: sanitizeDetection(in.Detection),
		Apps:      sanitizeRules(in.Apps),
	}
}

func sanitizeDetection(d DetectionSettings) DetectionSettings {
	out := d
	out.PresenceThreshold = clampFloat(d.PresenceThreshold, 0, 1)
	out.FaceRecognitionThreshold = clampFloat(d.FaceRecognitionThreshold, 0, 1)
	out.MotionSensitivity = clampFloat(d.MotionSensitivity, 0.01, 1)
	out.FramesBeforeTrigger = clampInt(d.FramesBeforeTrigger, 1)
	out.CooldownSeconds = clampInt(d.CooldownSeconds, 1)
	out.SampleIntervalMs = clampInt(d.SampleIntervalMs, 50)
	out.MotionRegion = sanitizeRegion(d.MotionRegion)
	out.CameraDeviceID = strings.TrimSpace(d.CameraDeviceID)

	faces := make([]SafeFaceProfile, 0, len(d.SafeFaces))
	for _, profile := range d.SafeFaces {
		faces = append(faces, NormalizeSafeFace(profile))
	}
	out.SafeFaces = faces
	return out
}

func sanitizeRules(a AppRules) AppRules {
	out := a
	out.GameBlacklist = SanitizeList(a.GameBlacklist)
	out.GameWhitelist = SanitizeList(a.GameWhitelist)
	out.WorkTargets = sanitizeTargets(a.WorkTargets)

	switch a.MatchStrategy {
	case MatchTitle, MatchProcess, MatchBundle:
	default:
		out.MatchStrategy = MatchAny
	}
	if a.ListMode != ModeWhitelist {
		out.ListMode = ModeBlacklist
	}
	return out
}

// SanitizeList trims entries, drops empty ones and removes duplicates while
// preserving the order of first occurrence. Dedup is case-sensitive.
func SanitizeList(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func sanitizeTargets(targets []activation.Target) []activation.Target {
	out := make([]activation.Target, 0, len(targets))
	for _, t := range targets {
		name := strings.TrimSpace(t.Name)
		bundleID := strings.TrimSpace(t.MacBundleID)
		command := strings.TrimSpace(t.WinCommand)
		if name == "" && bundleID == "" && command == "" {
			continue
		}

		macProcess := strings.TrimSpace(t.MacProcessName)
		if macProcess == "" {
			macProcess = name
		}

		winProcess := strings.TrimSpace(t.WinProcessName)
		if winProcess == "" {
			winProcess = extractWinProcessName(command)
		}

		args := make([]string, 0, len(t.Args))
		for _, arg := range t.Args {
			trimmed := strings.TrimSpace(arg)
			if trimmed != "" {
				args = append(args, trimmed)
			}
		}

		out = append(out, activation.Target{
			Name:           name,
			MacBundleID:    bundleID,
			MacProcessName: macProcess,
			WinCommand:     command,
			WinProcessName: winProcess,
			Args:           args,
		})
	}
	return out
}

// extractWinProcessName derives a Windows process name from a launch command:
// the final path segment with quotes and the .exe extension stripped.
func extractWinProcessName(command string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(command, `"`, ""))
	if cleaned == "" {
		return ""
	}
	last := cleaned
	if idx := strings.LastIndexAny(cleaned, `/\`); idx >= 0 {
		last = cleaned[idx+1:]
	}
	if len(last) >= 4 && strings.EqualFold(last[len(last)-4:], ".exe") {
		last = last[:len(last)-4]
	}
	return last
}

// NormalizeSafeFace assigns a fresh id when missing, trims the label (with a
// placeholder fallback) and zeroes non-finite descriptor values.
func NormalizeSafeFace(profile SafeFaceProfile) SafeFaceProfile {
	out := profile
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.Label = strings.TrimSpace(profile.Label)
	if out.Label == "" {
		out.Label = unnamedProfileLabel
	}
	descriptor := make([]float64, len(profile.Descriptor))
	for i, v := range profile.Descriptor {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		descriptor[i] = v
	}
	out.Descriptor = descriptor
	if out.CreatedAt <= 0 {
		out.CreatedAt = time.Now().UnixMilli()
	}
	return out
}

func sanitizeRegion(r MotionRegion) MotionRegion {
	width := clampFloat(r.Width, 0, 1)
	height := clampFloat(r.Height, 0, 1)
	// A collapsed dimension falls back to the full frame.
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return MotionRegion{
		X:      clampFloat(r.X, 0, 1),
		Y:      clampFloat(r.Y, 0, 1),
		Width:  width,
		Height: height,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, min int) int {
	if v < min {
		return min
	}
	return v
}
