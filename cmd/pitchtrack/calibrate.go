package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/tonelab/pitchtrack/algorithms/temporal"
	"github.com/tonelab/pitchtrack/audio"
	"github.com/tonelab/pitchtrack/tracker/config"
)

// runCalibrate measures the noise floor of a silent recording. The
// calibration JSON goes to stdout so it can be redirected; everything
// human-facing goes to stderr.
func runCalibrate(args []string) {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	multiplier := fs.Float64("multiplier", 1.5, "silence threshold as a multiple of the measured floor")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fail("usage: pitchtrack calibrate [-multiplier 1.5] <audio_file>")
	}
	path := fs.Arg(0)

	data, err := audio.Load(path)
	if err != nil {
		fail("loading %s: %v", path, err)
	}

	cfg := config.DefaultTrackerConfig()
	calibrator := temporal.NewNoiseFloorCalibratorWithMultiplier(*multiplier)
	cal := calibrator.CalibrateFromSignal(data.PCM, cfg.WindowSize, cfg.HopSize, data.SampleRate)

	fmt.Fprintf(os.Stderr, "measured %s of %s\n", data.Duration.Round(time.Millisecond), path)
	fmt.Fprintf(os.Stderr, "noise floor rms %.6f (peak %.6f), silence threshold %.6f\n",
		cal.RMSAverage, cal.RMSPeak, cal.Threshold)

	if cal.RMSPeak > 4*cal.RMSAverage {
		color.New(color.FgYellow).Fprintln(os.Stderr,
			"warning: peaks well above the average floor; the recording may not be uniformly silent")
	}
	if cal.Threshold > 0.05 {
		color.New(color.FgYellow).Fprintln(os.Stderr,
			"warning: high noise floor; quiet playing will read as silence")
	}

	out, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		fail("encoding calibration: %v", err)
	}
	fmt.Println(string(out))
}
