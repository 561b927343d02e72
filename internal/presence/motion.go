package presence

import (
	"math"

	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/vision"
)

// Motion estimation works on a small fixed raster so the per-tick cost is
// independent of camera resolution.
const (
	motionRasterWidth     = 160
	motionRasterMinHeight = 90
)

// movementScore extracts the configured region from the frame, downsamples it
// to the motion raster and returns the mean per-channel absolute difference
// against the previous raster, normalized into [0,1]. The first evaluated
// frame yields 0.
func (e *Evaluator) movementScore(frame *vision.Frame, det settings.DetectionSettings) float64 {
	if frame == nil || frame.Width <= 0 || frame.Height <= 0 || len(frame.Pixels) < frame.Width*frame.Height*4 {
		return 0
	}

	raster := sampleRegion(frame, det)
	score := rasterDelta(e.prevRaster, raster)
	e.prevRaster = raster
	return score
}

// sampleRegion nearest-neighbor downsamples the region into an RGB raster.
func sampleRegion(frame *vision.Frame, det settings.DetectionSettings) []uint8 {
	srcX, srcY := 0, 0
	srcW, srcH := frame.Width, frame.Height
	if det.MotionRegionEnabled {
		region := det.MotionRegion
		srcX = int(math.Round(region.X * float64(frame.Width)))
		srcY = int(math.Round(region.Y * float64(frame.Height)))
		srcW = int(math.Round(region.Width * float64(frame.Width)))
		srcH = int(math.Round(region.Height * float64(frame.Height)))
	}
	if srcW < 1 {
		srcW = 1
	}
	if srcH < 1 {
		srcH = 1
	}

	targetW := motionRasterWidth
	ratio := 0.75
	if srcW > 0 {
		ratio = float64(srcH) / float64(srcW)
	}
	targetH := int(math.Round(float64(targetW) * ratio))
	if targetH < motionRasterMinHeight {
		targetH = motionRasterMinHeight
	}

	raster := make([]uint8, 0, targetW*targetH*3)
	for ty := 0; ty < targetH; ty++ {
		y := srcY + ty*srcH/targetH
		if y >= frame.Height {
			y = frame.Height - 1
		}
		if y < 0 {
			y = 0
		}
		for tx := 0; tx < targetW; tx++ {
			x := srcX + tx*srcW/targetW
			if x >= frame.Width {
				x = frame.Width - 1
			}
			if x < 0 {
				x = 0
			}
			idx := (y*frame.Width + x) * 4
			raster = append(raster, frame.Pixels[idx], frame.Pixels[idx+1], frame.Pixels[idx+2])
		}
	}
	return raster
}

// rasterDelta returns the summed per-channel absolute difference normalized
// by the theoretical maximum, or 0 when there is no previous raster.
func rasterDelta(previous, current []uint8) float64 {
	if previous == nil {
		return 0
	}

	length := len(previous)
	if len(current) < length {
		length = len(current)
	}
	if length == 0 {
		return 0
	}

	var delta float64
	for i := 0; i < length; i++ {
		diff := int(current[i]) - int(previous[i])
		if diff < 0 {
			diff = -diff
		}
		delta += float64(diff)
	}

	maxDelta := float64(length) * 255
	return delta / maxDelta
}
