package audio

import (
	"encoding/binary"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 0.5, -0.25, 1}
	data := make([]byte, len(want)*8)
	for i, v := range want {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(v))
	}

	if got := bytesToFloat64(data); !reflect.DeepEqual(got, want) {
		t.Errorf("bytesToFloat64() = %v, want %v", got, want)
	}

	// A trailing partial value is dropped, not misread.
	if got := bytesToFloat64(append(data, 0xde, 0xad, 0xbe)); !reflect.DeepEqual(got, want) {
		t.Errorf("bytesToFloat64() with trailing bytes = %v, want %v", got, want)
	}

	if got := bytesToFloat64(nil); got != nil {
		t.Errorf("bytesToFloat64(nil) = %v, want nil", got)
	}
	if got := bytesToFloat64([]byte{1, 2, 3}); got != nil {
		t.Errorf("bytesToFloat64() on a short buffer = %v, want nil", got)
	}
}

func TestParseFFprobeOutput(t *testing.T) {
	jsonData := []byte(`{
		"streams": [{
			"codec_type": "audio",
			"codec_name": "mp3",
			"sample_rate": "48000",
			"channels": 2,
			"duration": "3.5"
		}]
	}`)

	metadata, err := parseFFprobeOutput(jsonData)
	if err != nil {
		t.Fatalf("parseFFprobeOutput() error = %v", err)
	}
	if metadata.Codec != "mp3" {
		t.Errorf("Codec = %q, want \"mp3\"", metadata.Codec)
	}
	if metadata.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", metadata.SampleRate)
	}
	if metadata.Channels != 2 {
		t.Errorf("Channels = %d, want 2", metadata.Channels)
	}
	if metadata.Duration != 3.5 {
		t.Errorf("Duration = %g, want 3.5", metadata.Duration)
	}
}

func TestParseFFprobeOutputSampleRateFallback(t *testing.T) {
	jsonData := []byte(`{"streams": [{"codec_type": "audio", "codec_name": "opus", "sample_rate": "N/A", "channels": 1}]}`)

	metadata, err := parseFFprobeOutput(jsonData)
	if err != nil {
		t.Fatalf("parseFFprobeOutput() error = %v", err)
	}
	if metadata.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100 fallback", metadata.SampleRate)
	}
}

func TestParseFFprobeOutputRejects(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
	}{
		{"malformed json", `{"streams": [`},
		{"no streams", `{"streams": []}`},
		{"video stream", `{"streams": [{"codec_type": "video", "codec_name": "h264", "channels": 0}]}`},
		{"zero channels", `{"streams": [{"codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 0}]}`},
		{"too many channels", `{"streams": [{"codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100", "channels": 9}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFFprobeOutput([]byte(tt.jsonData)); err == nil {
				t.Error("parseFFprobeOutput() should fail")
			}
		})
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	decoder := NewDecoder(&DecoderConfig{TargetSampleRate: 22050})

	want := []string{"-vn", "-f", "f64le", "-ac", "1", "-ar", "22050", "-v", "error"}
	if got := decoder.buildFFmpegArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("buildFFmpegArgs() = %v, want %v", got, want)
	}
}

func TestDefaultDecoderConfig(t *testing.T) {
	t.Setenv("PITCHTRACK_FFMPEG", "")
	t.Setenv("PITCHTRACK_FFPROBE", "")

	config := DefaultDecoderConfig()
	if config.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want \"ffmpeg\"", config.FFmpegPath)
	}
	if config.FFprobePath != "ffprobe" {
		t.Errorf("FFprobePath = %q, want \"ffprobe\"", config.FFprobePath)
	}
	if config.TargetSampleRate != 44100 {
		t.Errorf("TargetSampleRate = %d, want 44100", config.TargetSampleRate)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", config.Timeout)
	}
}

func TestDefaultDecoderConfigEnvOverride(t *testing.T) {
	t.Setenv("PITCHTRACK_FFMPEG", "/opt/media/bin/ffmpeg")
	t.Setenv("PITCHTRACK_FFPROBE", "/opt/media/bin/ffprobe")

	config := DefaultDecoderConfig()
	if config.FFmpegPath != "/opt/media/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q, want env override", config.FFmpegPath)
	}
	if config.FFprobePath != "/opt/media/bin/ffprobe" {
		t.Errorf("FFprobePath = %q, want env override", config.FFprobePath)
	}
}

func TestNewDecoderNilConfig(t *testing.T) {
	decoder := NewDecoder(nil)
	if decoder.config == nil || decoder.config.TargetSampleRate != 44100 {
		t.Fatal("NewDecoder(nil) should install the default configuration")
	}
}

func TestDecodeFileMissingBinaries(t *testing.T) {
	decoder := NewDecoder(&DecoderConfig{
		TargetSampleRate: 44100,
		FFmpegPath:       "/nonexistent/ffmpeg",
		FFprobePath:      "/nonexistent/ffprobe",
		Timeout:          time.Second,
	})

	_, err := decoder.DecodeFile("take.mp3")
	if err == nil {
		t.Fatal("DecodeFile() without ffprobe should fail")
	}
	if !strings.Contains(err.Error(), "ffprobe") {
		t.Errorf("error %q should name the failing tool", err)
	}
}

func TestDuration(t *testing.T) {
	if got := duration(44100, 44100); got != time.Second {
		t.Errorf("duration(44100, 44100) = %v, want 1s", got)
	}
	if got := duration(0, 44100); got != 0 {
		t.Errorf("duration(0, 44100) = %v, want 0", got)
	}
	if got := duration(100, 0); got != 0 {
		t.Errorf("duration(100, 0) = %v, want 0", got)
	}
}
