// Package audio loads recordings into the mono float64 form the analysis
// chain consumes: a native WAV fast path and an ffmpeg decode fallback for
// everything else.
package audio

import (
	"time"
)

// AudioData is a decoded recording. PCM is always mono; Channels reports
// what the source carried before mixdown.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Path       string        `json:"path,omitempty"`
	Format     string        `json:"format"`
}

func duration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
