package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/tonelab/pitchtrack/logging"
)

// DecoderConfig holds ffmpeg decoder configuration. Binary paths default
// to PATH lookup and can be overridden with the PITCHTRACK_FFMPEG and
// PITCHTRACK_FFPROBE environment variables.
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns the decoder defaults: 44.1 kHz mono output
// with a 30 second decode timeout.
func DefaultDecoderConfig() *DecoderConfig {
	ffmpeg := os.Getenv("PITCHTRACK_FFMPEG")
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe := os.Getenv("PITCHTRACK_FFPROBE")
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}

	return &DecoderConfig{
		TargetSampleRate: 44100,
		FFmpegPath:       ffmpeg,
		FFprobePath:      ffprobe,
		Timeout:          30 * time.Second,
	}
}

// Decoder decodes audio files by piping them through ffmpeg as raw
// float64 little-endian mono PCM.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a decoder. A nil configuration uses the defaults.
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// FileMetadata holds the audio properties ffprobe reports for a file.
type FileMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
}

// DecodeFile probes and decodes an audio file into mono PCM at the target
// sample rate.
func (d *Decoder) DecodeFile(path string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"path":      path,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.ProbeFile(path)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	args := append([]string{"-i", path}, d.buildFFmpegArgs()...)
	args = append(args, "pipe:1")
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	pcm := bytesToFloat64(output)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", path)
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"samples":     len(pcm),
		"sample_rate": d.config.TargetSampleRate,
	})

	return &AudioData{
		PCM:        pcm,
		SampleRate: d.config.TargetSampleRate,
		Channels:   metadata.Channels,
		Duration:   duration(len(pcm), d.config.TargetSampleRate),
		Path:       path,
		Format:     metadata.Codec,
	}, nil
}

// ProbeFile extracts audio properties from the first audio stream of a
// file without decoding it.
func (d *Decoder) ProbeFile(path string) (*FileMetadata, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	}
	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// buildFFmpegArgs builds the output arguments: raw float64 little-endian,
// mono, resampled to the target rate.
func (d *Decoder) buildFFmpegArgs() []string {
	return []string{
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"-v", "error",
	}
}

// parseFFprobeOutput parses ffprobe JSON into FileMetadata.
func parseFFprobeOutput(jsonData []byte) (*FileMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100
	}
	fileDuration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		fileDuration = 0
	}

	return &FileMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   fileDuration,
	}, nil
}

// bytesToFloat64 reinterprets raw f64le bytes as samples, trimming any
// trailing partial value.
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
