package settings

import "github.com/moview/moview/pkg/activation"

// MatchStrategy selects which window attributes are compared against the
// game rules.
type MatchStrategy string

const (
	MatchAny     MatchStrategy = "any"
	MatchTitle   MatchStrategy = "title"
	MatchProcess MatchStrategy = "process"
	MatchBundle  MatchStrategy = "bundle"
)

// ListMode selects how the blacklist/whitelist pair is interpreted.
type ListMode string

const (
	ModeBlacklist ListMode = "blacklist"
	ModeWhitelist ListMode = "whitelist"
)

// MotionRegion is a normalized sub-rectangle of the camera frame, all fields
// in [0,1].
type MotionRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SafeFaceProfile is a stored descriptor of a known, non-visitor occupant.
type SafeFaceProfile struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Descriptor []float64 `json:"descriptor"`
	CreatedAt  int64     `json:"createdAt"` // unix milliseconds
}

// DetectionSettings holds all presence-detection tuning.
type DetectionSettings struct {
	EnableAutoSwitch         bool              `json:"enableAutoSwitch"`
	PresenceThreshold        float64           `json:"presenceThreshold"`
	FramesBeforeTrigger      int               `json:"framesBeforeTrigger"`
	CooldownSeconds          int               `json:"cooldownSeconds"`
	SampleIntervalMs         int               `json:"sampleIntervalMs"`
	FaceRecognitionThreshold float64           `json:"faceRecognitionThreshold"`
	MotionSensitivity        float64           `json:"motionSensitivity"`
	MotionRegionEnabled      bool              `json:"motionRegionEnabled"`
	MotionRegion             MotionRegion      `json:"motionRegion"`
	SafeFaces                []SafeFaceProfile `json:"safeFaces"`
	CameraDeviceID           string            `json:"cameraDeviceId,omitempty"`
}

// AppRules holds the game blacklist/whitelist and the work targets the
// switcher may activate.
type AppRules struct {
	GameBlacklist []string            `json:"gameBlacklist"`
	GameWhitelist []string            `json:"gameWhitelist"`
	WorkTargets   []activation.Target `json:"workTargets"`
	MatchStrategy MatchStrategy       `json:"matchStrategy"`
	ListMode      ListMode            `json:"listMode"`
}

// AppSettings is one immutable configuration snapshot. Components receive it
// by value and never mutate it.
type AppSettings struct {
	Detection DetectionSettings `json:"detection"`
	Apps      AppRules          `json:"apps"`
}

// Default returns the built-in settings used before the user saves anything.
func Default() AppSettings {
	return AppSettings{
		Detection: DetectionSettings{
			EnableAutoSwitch:         false,
			PresenceThreshold:        0.6,
			FramesBeforeTrigger:      2,
			CooldownSeconds:          15,
			SampleIntervalMs:         100,
			FaceRecognitionThreshold: 0.42,
			MotionSensitivity:        0.05,
			MotionRegionEnabled:      false,
			MotionRegion:             MotionRegion{X: 0, Y: 0, Width: 1, Height: 1},
			SafeFaces:                []SafeFaceProfile{},
		},
		Apps: AppRules{
			GameBlacklist: []string{},
			GameWhitelist: []string{},
			WorkTargets:   []activation.Target{},
			MatchStrategy: MatchAny,
			ListMode:      ModeBlacklist,
		},
	}
}
