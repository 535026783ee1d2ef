package eelayer

import (
	"math"
	"time"
)

// ActiveFrameAt derives the active frame index from wall-clock time, the
// frame count and a playback speed in frames per second. The loop repeats
// every frameCount/speed seconds. Returns 0 when no frames are available.
func ActiveFrameAt(now time.Time, frameCount int, speedFramesPerSecond float64) int {
	if frameCount <= 0 || speedFramesPerSecond <= 0 {
		return 0
	}

	loopDurationSeconds := float64(frameCount) / speedFramesPerSecond
	elapsedSeconds := float64(now.UnixNano()) / float64(time.Second)

	phase := math.Mod(elapsedSeconds, loopDurationSeconds) / loopDurationSeconds
	if phase < 0 {
		phase += 1
	}

	frame := int(math.Floor(phase * float64(frameCount)))
	if frame >= frameCount {
		// phase can land exactly on 1.0 through floating point rounding
		frame = frameCount - 1
	}

	return frame
}
