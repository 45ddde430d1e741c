package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/tonelab/pitchtrack/algorithms/common"
	"github.com/tonelab/pitchtrack/algorithms/notes"
	"github.com/tonelab/pitchtrack/audio"
	"github.com/tonelab/pitchtrack/tracker"
	"github.com/tonelab/pitchtrack/tracker/config"
)

const meterWidth = 21

func runTune(args []string) {
	fs := flag.NewFlagSet("tune", flag.ExitOnError)
	note := fs.String("note", "", "target note, e.g. A4 or E2; empty tunes against the nearest note")
	instrument := fs.String("instrument", "", "instrument preset ("+strings.Join(config.Instruments(), ", ")+")")
	a4 := fs.Float64("a4", 440.0, "reference frequency for A4 in Hz")
	tolerance := fs.Float64("tolerance", notes.DefaultMatchToleranceCents, "in-tune tolerance in cents")
	normalize := fs.Bool("normalize", true, "peak-normalize the recording before tracking")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fail("usage: pitchtrack tune [-note A4] [-instrument guitar] [-a4 440] [-tolerance 50] <audio_file>")
	}
	path := fs.Arg(0)

	data, err := audio.Load(path)
	if err != nil {
		fail("loading %s: %v", path, err)
	}
	if *normalize {
		// Quiet recordings would otherwise sit under the silence gate.
		common.NewNormalizer(common.NormPeak, 0.95).Normalize(data.PCM)
	}

	cfg, err := buildConfig(*instrument, *a4, *tolerance, data.SampleRate)
	if err != nil {
		fail("%v", err)
	}

	trk, err := tracker.New(cfg)
	if err != nil {
		fail("creating tracker: %v", err)
	}
	if *note != "" {
		if err := trk.SetTarget(*note); err != nil {
			fail("%v", err)
		}
	}

	results, err := trk.ProcessStream(data.PCM)
	if err != nil {
		fail("processing %s: %v", path, err)
	}

	converter := notes.NewConverterWithReference(cfg.ReferenceA4)
	frameMs := 1000 * float64(cfg.HopSize) / float64(cfg.SampleRate)
	segments := stableSegments(results, *note, *tolerance, frameMs, converter)

	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if tty {
		if *note != "" {
			if targetFreq, err := converter.NoteToFrequency(*note); err == nil {
				fmt.Printf("target %s (%.2f Hz, A4 = %g Hz, in tune within %.0f cents)\n\n", *note, targetFreq, *a4, *tolerance)
			} else {
				fmt.Printf("target %s in any octave (A4 = %g Hz, in tune within %.0f cents)\n\n", *note, *a4, *tolerance)
			}
		} else {
			fmt.Printf("nearest-note mode (A4 = %g Hz, in tune within %.0f cents)\n\n", *a4, *tolerance)
		}
		for _, seg := range segments {
			fmt.Println(renderSegment(seg))
		}
	} else {
		// Piped output stays machine-readable: one tab-separated line per
		// held note.
		for _, seg := range segments {
			fmt.Printf("%.0f\t%.0f\t%s\t%.2f\t%+.1f\t%t\n",
				seg.StartMs, seg.EndMs, seg.NoteName, seg.Frequency, seg.CentsOff, seg.InTune)
		}
	}

	if len(segments) == 0 {
		fail("no stable pitch detected; play one sustained note and keep the room quiet")
	}
	if tty {
		fmt.Println()
		printVerdict(segments[len(segments)-1])
	}
}

// tuneSegment is a run of consecutive stable frames holding one note.
type tuneSegment struct {
	StartMs   float64
	EndMs     float64
	Frequency float64 // mean smoothed frequency over the run
	NoteName  string
	CentsOff  float64
	InTune    bool
}

// stableSegments collapses frame results into held-note segments. With a
// target note the cents offset is measured against it; otherwise against
// the nearest note at the converter's reference pitch.
func stableSegments(results []tracker.FrameResult, target string, toleranceCents, frameMs float64, converter *notes.Converter) []tuneSegment {
	var segments []tuneSegment
	var current *tuneSegment
	var sum float64
	var count int

	flush := func() {
		if current == nil {
			return
		}
		mean := sum / float64(count)
		current.Frequency = mean
		if target != "" {
			match := converter.MatchesExpectedNote(mean, target, toleranceCents)
			current.CentsOff = match.CentsOff
			current.InTune = match.Matches
		} else if note, err := converter.FrequencyToNote(mean); err == nil {
			current.CentsOff = note.Cents
			current.InTune = math.Abs(note.Cents) <= toleranceCents
		}
		segments = append(segments, *current)
		current, sum, count = nil, 0, 0
	}

	for _, r := range results {
		if !r.Stability.IsStable || r.SmoothedFrequency <= 0 || r.Note == nil {
			flush()
			continue
		}
		name := r.Note.String()
		if current != nil && current.NoteName != name {
			flush()
		}
		if current == nil {
			current = &tuneSegment{StartMs: r.TimestampMs, NoteName: name}
		}
		current.EndMs = r.TimestampMs + frameMs
		sum += r.SmoothedFrequency
		count++
	}
	flush()

	return segments
}

func renderSegment(seg tuneSegment) string {
	status := statusColor(seg).Sprintf("%+.1f cents  %s", seg.CentsOff, direction(seg))
	return fmt.Sprintf("  %5.2fs - %5.2fs  %-4s %8.2f Hz  [%s]  %s",
		seg.StartMs/1000, seg.EndMs/1000, seg.NoteName, seg.Frequency,
		renderMeter(seg.CentsOff, meterWidth), status)
}

func printVerdict(seg tuneSegment) {
	switch {
	case seg.InTune:
		color.New(color.FgGreen, color.Bold).Printf("in tune: %s (%+.1f cents)\n", seg.NoteName, seg.CentsOff)
	case seg.CentsOff > 0:
		color.New(color.FgRed, color.Bold).Printf("%s is sharp by %.1f cents: tune down\n", seg.NoteName, seg.CentsOff)
	default:
		color.New(color.FgRed, color.Bold).Printf("%s is flat by %.1f cents: tune up\n", seg.NoteName, -seg.CentsOff)
	}
}

func statusColor(seg tuneSegment) *color.Color {
	switch {
	case seg.InTune:
		return color.New(color.FgGreen)
	case math.Abs(seg.CentsOff) <= 25:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func direction(seg tuneSegment) string {
	switch {
	case seg.InTune:
		return "in tune"
	case seg.CentsOff > 0:
		return "tune down"
	default:
		return "tune up"
	}
}

// renderMeter draws a fixed-width cents meter spanning -50..+50 with the
// needle at the given offset. Width is forced odd so the center pipe marks
// zero exactly.
func renderMeter(cents float64, width int) string {
	if width < 3 {
		width = 3
	}
	if width%2 == 0 {
		width++
	}

	pos := int(math.Round((common.Clamp(cents, -50, 50) + 50) / 100 * float64(width-1)))
	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == pos:
			b.WriteByte('*')
		case i == width/2:
			b.WriteByte('|')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
