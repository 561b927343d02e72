package settings

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moview/moview/pkg/activation"
)

func TestSanitizeListTrimsAndDeduplicates(t *testing.T) {
	result := SanitizeList([]string{"  Foo ", "bar", "", "foo", "BAR", "bar"})
	assert.Equal(t, []string{"Foo", "bar", "foo", "BAR"}, result)
}

func TestSanitizeClampsNumericRanges(t *testing.T) {
	dirty := Default()
	dirty.Detection.PresenceThreshold = 2
	dirty.Detection.FaceRecognitionThreshold = -1
	dirty.Detection.MotionSensitivity = 0
	dirty.Detection.FramesBeforeTrigger = 0
	dirty.Detection.CooldownSeconds = -5
	dirty.Detection.SampleIntervalMs = 20

	clean := Sanitize(dirty)

	assert.Equal(t, 1.0, clean.Detection.PresenceThreshold)
	assert.Equal(t, 0.0, clean.Detection.FaceRecognitionThreshold)
	assert.Equal(t, 0.01, clean.Detection.MotionSensitivity)
	assert.Equal(t, 1, clean.Detection.FramesBeforeTrigger)
	assert.Equal(t, 1, clean.Detection.CooldownSeconds)
	assert.Equal(t, 50, clean.Detection.SampleIntervalMs)
}

func TestSanitizeHandlesNonFiniteValues(t *testing.T) {
	cases := []struct {
		name  string
		value float64
		want  float64
	}{
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 1},
		{"negative infinity", math.Inf(-1), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dirty := Default()
			dirty.Detection.PresenceThreshold = tc.value
			clean := Sanitize(dirty)
			assert.Equal(t, tc.want, clean.Detection.PresenceThreshold)
			assert.False(t, math.IsNaN(clean.Detection.PresenceThreshold))
		})
	}
}

func TestSanitizeMotionRegion(t *testing.T) {
	dirty := Default()
	dirty.Detection.MotionRegion = MotionRegion{X: -0.5, Y: 2, Width: 0, Height: -3}

	region := Sanitize(dirty).Detection.MotionRegion

	assert.Equal(t, 0.0, region.X)
	assert.Equal(t, 1.0, region.Y)
	// Collapsed dimensions reset to the full frame.
	assert.Equal(t, 1.0, region.Width)
	assert.Equal(t, 1.0, region.Height)
}

func TestSanitizeIsIdempotent(t *testing.T) {
	dirty := Default()
	dirty.Detection.PresenceThreshold = math.Inf(1)
	dirty.Detection.FramesBeforeTrigger = -3
	dirty.Detection.MotionRegion = MotionRegion{X: 7, Y: -1, Width: 0.5, Height: 0}
	dirty.Apps.GameBlacklist = []string{" steam ", "steam", ""}
	dirty.Apps.MatchStrategy = MatchStrategy("bogus")
	dirty.Apps.ListMode = ListMode("bogus")
	dirty.Apps.WorkTargets = []activation.Target{
		{Name: "  Code  ", WinCommand: `"C:\Program Files\VSCode\Code.exe"`},
	}
	dirty.Detection.SafeFaces = []SafeFaceProfile{
		{Label: "  Me  ", Descriptor: []float64{0.1, math.NaN()}},
	}

	once := Sanitize(dirty)
	twice := Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestSanitizeWorkTargets(t *testing.T) {
	dirty := Default()
	dirty.Apps.WorkTargets = []activation.Target{
		{Name: "  VS Code  ", WinCommand: `"C:\Tools\Code.EXE"`, Args: []string{" --reuse-window ", ""}},
		{Name: "Terminal", MacProcessName: " iTerm2 "},
		{Name: "   "}, // no identifying field, dropped
	}

	targets := Sanitize(dirty).Apps.WorkTargets

	require.Len(t, targets, 2)
	assert.Equal(t, "VS Code", targets[0].Name)
	assert.Equal(t, "VS Code", targets[0].MacProcessName)
	assert.Equal(t, "Code", targets[0].WinProcessName)
	assert.Equal(t, []string{"--reuse-window"}, targets[0].Args)
	assert.Equal(t, "iTerm2", targets[1].MacProcessName)
}

func TestNormalizeSafeFace(t *testing.T) {
	profile := NormalizeSafeFace(SafeFaceProfile{
		Label:      "   ",
		Descriptor: []float64{1, math.Inf(1), math.NaN()},
	})

	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "Unnamed", profile.Label)
	assert.Equal(t, []float64{1, 0, 0}, profile.Descriptor)
	assert.Greater(t, profile.CreatedAt, int64(0))

	// An existing id and label survive unchanged.
	again := NormalizeSafeFace(profile)
	assert.Equal(t, profile.ID, again.ID)
	assert.Equal(t, profile.Label, again.Label)
}

func TestSanitizeStrategyAndModeFallbacks(t *testing.T) {
	dirty := Default()
	dirty.Apps.MatchStrategy = "nonsense"
	dirty.Apps.ListMode = "nonsense"

	clean := Sanitize(dirty)

	assert.Equal(t, MatchAny, clean.Apps.MatchStrategy)
	assert.Equal(t, ModeBlacklist, clean.Apps.ListMode)

	dirty.Apps.MatchStrategy = MatchBundle
	dirty.Apps.ListMode = ModeWhitelist
	clean = Sanitize(dirty)

	assert.Equal(t, MatchBundle, clean.Apps.MatchStrategy)
	assert.Equal(t, ModeWhitelist, clean.Apps.ListMode)
}
