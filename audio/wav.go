package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unixpickle/wav"

	"github.com/tonelab/pitchtrack/logging"
)

// LoadWAV reads a WAV file and mixes it down to mono.
func LoadWAV(path string) (*AudioData, error) {
	sound, err := wav.ReadSoundFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}

	channels := sound.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("wav %s reports %d channels", path, channels)
	}

	pcm := mixdown(sound.Samples(), channels)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("wav %s contains no samples", path)
	}

	return &AudioData{
		PCM:        pcm,
		SampleRate: sound.SampleRate(),
		Channels:   channels,
		Duration:   duration(len(pcm), sound.SampleRate()),
		Path:       path,
		Format:     "wav",
	}, nil
}

// Load reads any audio file: WAV through the native reader, everything
// else (or a WAV the native reader rejects) through the ffmpeg decoder.
func Load(path string) (*AudioData, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		data, err := LoadWAV(path)
		if err == nil {
			return data, nil
		}
		logging.Debug("Native wav read failed, falling back to ffmpeg", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
	return NewDecoder(nil).DecodeFile(path)
}

// mixdown averages interleaved channels into one.
func mixdown(samples []wav.Sample, channels int) []float64 {
	if channels == 1 {
		pcm := make([]float64, len(samples))
		for i, s := range samples {
			pcm[i] = float64(s)
		}
		return pcm
	}

	frames := len(samples) / channels
	pcm := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(samples[i*channels+c])
		}
		pcm[i] = sum / float64(channels)
	}
	return pcm
}
