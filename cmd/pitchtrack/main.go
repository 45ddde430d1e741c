// Command pitchtrack inspects recordings for pitch content: a whole-file
// analysis report, a tuner view against a target note, and noise floor
// calibration.
//
// Environment (optionally loaded from a .env file):
//
//	PITCHTRACK_LOG_LEVEL   debug | info | warn | error (default warn)
//	PITCHTRACK_FFMPEG      path to ffmpeg for non-WAV input
//	PITCHTRACK_FFPROBE     path to ffprobe
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tonelab/pitchtrack/logging"
	"github.com/tonelab/pitchtrack/tracker/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()
	configureLogging()

	switch os.Args[1] {
	case "analyze":
		runAnalyze(os.Args[2:])
	case "tune":
		runTune(os.Args[2:])
	case "calibrate":
		runCalibrate(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func configureLogging() {
	raw := os.Getenv("PITCHTRACK_LOG_LEVEL")
	if raw == "" {
		logging.SetLevel(logging.WarnLevel)
		return
	}
	level, err := logging.ParseLevel(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignoring PITCHTRACK_LOG_LEVEL: %v\n", err)
		logging.SetLevel(logging.WarnLevel)
		return
	}
	logging.SetLevel(level)
}

func printUsage() {
	fmt.Println("usage: pitchtrack <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  analyze   [-instrument guitar] [-a4 440] <audio_file>")
	fmt.Println("            pitch, loudness, onset and harmonic report for a recording")
	fmt.Println("  tune      [-note A4] [-instrument guitar] [-a4 440] [-tolerance 50] <audio_file>")
	fmt.Println("            tuner view: cents offset against a target (or the nearest) note")
	fmt.Println("  calibrate [-multiplier 1.5] <audio_file>")
	fmt.Println("            measure the noise floor of a silent recording, JSON on stdout")
	fmt.Println()
	fmt.Println("instruments: " + strings.Join(config.Instruments(), ", "))
}

// buildConfig assembles a tracker configuration for a CLI run: the named
// instrument preset (or the general default), rebound to the recording's
// sample rate and reference pitch.
func buildConfig(instrument string, a4, toleranceCents float64, sampleRate int) (*config.TrackerConfig, error) {
	cfg := config.DefaultTrackerConfig()
	if instrument != "" {
		var err error
		cfg, err = config.ConfigForInstrument(config.Instrument(instrument))
		if err != nil {
			return nil, err
		}
	}
	cfg.SampleRate = sampleRate
	cfg.ReferenceA4 = a4
	cfg.MatchToleranceCents = toleranceCents
	return cfg, nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
