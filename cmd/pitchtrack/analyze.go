package main

import (
	"flag"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/tonelab/pitchtrack/algorithms/common"
	"github.com/tonelab/pitchtrack/algorithms/harmonic"
	"github.com/tonelab/pitchtrack/algorithms/notes"
	"github.com/tonelab/pitchtrack/algorithms/spectral"
	"github.com/tonelab/pitchtrack/algorithms/temporal"
	"github.com/tonelab/pitchtrack/audio"
	"github.com/tonelab/pitchtrack/tracker"
	"github.com/tonelab/pitchtrack/tracker/config"
)

var heading = color.New(color.FgCyan, color.Bold)

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	instrument := fs.String("instrument", "", "instrument preset ("+strings.Join(config.Instruments(), ", ")+")")
	a4 := fs.Float64("a4", 440.0, "reference frequency for A4 in Hz")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fail("usage: pitchtrack analyze [-instrument guitar] [-a4 440] <audio_file>")
	}
	path := fs.Arg(0)

	data, err := audio.Load(path)
	if err != nil {
		fail("loading %s: %v", path, err)
	}

	cfg, err := buildConfig(*instrument, *a4, notes.DefaultMatchToleranceCents, data.SampleRate)
	if err != nil {
		fail("%v", err)
	}

	trk, err := tracker.New(cfg)
	if err != nil {
		fail("creating tracker: %v", err)
	}
	results, err := trk.ProcessStream(data.PCM)
	if err != nil {
		fail("processing %s: %v", path, err)
	}
	if len(results) == 0 {
		fail("%s is shorter than one analysis window (%d samples)", path, cfg.WindowSize)
	}

	analyzer, err := spectral.NewSpectrumAnalyzerWithParams(spectral.SpectrumParams{
		SampleRate: cfg.SampleRate,
		Method:     cfg.SpectrumMethod,
		WindowType: cfg.WindowType,
	})
	if err != nil {
		fail("spectrum analyzer: %v", err)
	}

	printRecording(data)
	printLoudness(results)
	printPitch(results, cfg)
	printOnsets(data.PCM, cfg, analyzer)
	printHarmonics(data.PCM, results, cfg, analyzer)
}

func printRecording(data *audio.AudioData) {
	heading.Println("recording")
	fmt.Printf("  path         %s\n", data.Path)
	fmt.Printf("  format       %s\n", data.Format)
	fmt.Printf("  sample rate  %d Hz\n", data.SampleRate)
	fmt.Printf("  channels     %d (analyzed as mono)\n", data.Channels)
	fmt.Printf("  duration     %s (%d samples)\n", data.Duration.Round(time.Millisecond), len(data.PCM))
	fmt.Println()
}

func printLoudness(results []tracker.FrameResult) {
	rms := make([]float64, len(results))
	silent := 0
	for i, r := range results {
		rms[i] = r.RMS
		if r.IsSilent {
			silent++
		}
	}

	heading.Println("loudness")
	fmt.Printf("  rms p10/p50/p90  %s / %s / %s\n",
		dbfs(common.Percentile(rms, 0.1)),
		dbfs(common.Percentile(rms, 0.5)),
		dbfs(common.Percentile(rms, 0.9)))
	fmt.Printf("  rms peak         %s\n", dbfs(common.Percentile(rms, 1.0)))
	fmt.Printf("  silent frames    %d of %d (%.0f%%)\n",
		silent, len(results), 100*float64(silent)/float64(len(results)))
	fmt.Println()
}

func printPitch(results []tracker.FrameResult, cfg *config.TrackerConfig) {
	var voiced, confidences []float64
	stable := 0
	for _, r := range results {
		if r.Frequency > 0 {
			voiced = append(voiced, r.Frequency)
			if r.Pitch != nil {
				confidences = append(confidences, r.Pitch.Confidence)
			}
		}
		if r.Stability.IsStable {
			stable++
		}
	}

	heading.Println("pitch")
	if len(voiced) == 0 {
		fmt.Println("  no voiced frames detected")
		fmt.Println()
		return
	}

	// Offline pass: a median filter over the whole track knocks out the
	// single-frame octave blips the live smoother only attenuates.
	smoothed := common.MedianFilter(voiced, 5)
	converter := notes.NewConverterWithReference(cfg.ReferenceA4)

	median := common.Median(smoothed)
	fmt.Printf("  voiced frames    %d of %d\n", len(voiced), len(results))
	fmt.Printf("  stable frames    %d\n", stable)
	fmt.Printf("  median f0        %.2f Hz", median)
	if note, err := converter.FrequencyToNote(median); err == nil {
		fmt.Printf(" (%s %+.0f cents)", note.String(), note.Cents)
	}
	fmt.Println()
	fmt.Printf("  f0 p5..p95       %.2f .. %.2f Hz\n",
		common.Percentile(smoothed, 0.05), common.Percentile(smoothed, 0.95))
	fmt.Printf("  mean confidence  %.2f\n", common.Mean(confidences))
	fmt.Printf("  notes            %s\n", noteHistogram(smoothed, converter))
	fmt.Println()
}

// noteHistogram names the most common notes in a frequency track, with the
// share of voiced frames each one covers.
func noteHistogram(frequencies []float64, converter *notes.Converter) string {
	counts := make(map[string]int)
	for _, f := range frequencies {
		if note, err := converter.FrequencyToNote(f); err == nil {
			counts[note.String()]++
		}
	}
	if len(counts) == 0 {
		return "none"
	}

	type noteShare struct {
		name  string
		count int
	}
	ranked := make([]noteShare, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, noteShare{name, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	parts := make([]string, len(ranked))
	for i, ns := range ranked {
		parts[i] = fmt.Sprintf("%s %.0f%%", ns.name, 100*float64(ns.count)/float64(len(frequencies)))
	}
	return strings.Join(parts, ", ")
}

func printOnsets(pcm []float64, cfg *config.TrackerConfig, analyzer *spectral.SpectrumAnalyzer) {
	sw := common.NewSlidingWindow(cfg.WindowSize, cfg.HopSize)
	frames := sw.AddSamples(pcm)
	spectra := make([][]float64, 0, len(frames))
	for _, frame := range frames {
		spectrum, err := analyzer.Compute(frame)
		if err != nil {
			fail("computing spectrum: %v", err)
		}
		spectra = append(spectra, spectrum)
	}

	flux := spectral.NewSpectralFlux().ComputeFrames(spectra)
	detector := temporal.NewOnsetDetector()
	threshold := detector.AdaptiveThreshold(flux)
	onsets := detector.FindOnsets(flux, threshold, 0.05, cfg.HopSize, cfg.SampleRate)

	heading.Println("onsets")
	fmt.Printf("  detected  %d (adaptive flux threshold %.3f)\n", len(onsets), threshold)
	if len(onsets) > 0 {
		times := make([]string, 0, len(onsets))
		for i, frameIdx := range onsets {
			if i == 8 {
				times = append(times, "...")
				break
			}
			times = append(times, fmt.Sprintf("%.2fs", float64(frameIdx*cfg.HopSize)/float64(cfg.SampleRate)))
		}
		fmt.Printf("  at        %s\n", strings.Join(times, "  "))
	}
	fmt.Println()
}

func printHarmonics(pcm []float64, results []tracker.FrameResult, cfg *config.TrackerConfig, analyzer *spectral.SpectrumAnalyzer) {
	best := -1
	for i, r := range results {
		if r.Frequency > 0 && (best < 0 || r.RMS > results[best].RMS) {
			best = i
		}
	}

	heading.Println("harmonics")
	if best < 0 {
		fmt.Println("  no voiced frame to analyze")
		fmt.Println()
		return
	}

	start := best * cfg.HopSize
	if start+cfg.WindowSize > len(pcm) {
		start = len(pcm) - cfg.WindowSize
	}
	window := pcm[start : start+cfg.WindowSize]

	hp := harmonic.NewHarmonicProduct(cfg.SampleRate, 5, cfg.Range.LowHz, cfg.Range.HighHz)
	f0, confidence := hp.EstimateF0WithConfidence(window)

	spectrum, err := analyzer.Compute(window)
	if err != nil {
		fail("computing spectrum: %v", err)
	}
	maxMag := 0.0
	for _, m := range spectrum {
		if m > maxMag {
			maxMag = m
		}
	}

	converter := notes.NewConverterWithReference(cfg.ReferenceA4)
	fmt.Printf("  strongest frame  %.2fs (rms %s)\n", float64(start)/float64(cfg.SampleRate), dbfs(results[best].RMS))
	fmt.Printf("  hps f0           %.2f Hz", f0)
	if note, err := converter.FrequencyToNote(f0); err == nil {
		fmt.Printf(" (%s %+.0f cents)", note.String(), note.Cents)
	}
	fmt.Printf(", confidence %.2f\n", confidence)
	fmt.Printf("  harmonicity      %.2f\n", hp.ComputeHarmonicity(spectrum, f0, cfg.WindowSize))

	detector := harmonic.NewSpectralPeaks(cfg.SampleRate, maxMag*0.05, cfg.Range.LowHz/2, 8)
	peaks := detector.DetectPeaks(spectrum, cfg.WindowSize)
	peaks = detector.RefineWithInterpolation(spectrum, peaks, cfg.WindowSize)
	peaks = detector.AssignHarmonics(peaks, f0, 0.03)
	if len(peaks) > 0 {
		fmt.Println("  peaks:")
		for _, p := range peaks {
			label := "-"
			if p.Harmonic >= 0 {
				label = fmt.Sprintf("H%d", p.Harmonic+1)
			}
			fmt.Printf("    %-3s %9.2f Hz  %7.1f dB\n", label, p.Frequency, relativeDB(p.Magnitude, maxMag))
		}
	}
	fmt.Println()
}

// dbfs formats an RMS amplitude as dB full scale.
func dbfs(rms float64) string {
	if rms <= 0 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", 20*math.Log10(rms))
}

// relativeDB is the level of mag below ref, floored at -120 dB.
func relativeDB(mag, ref float64) float64 {
	if mag <= 0 || ref <= 0 {
		return -120
	}
	db := 20 * math.Log10(mag/ref)
	if db < -120 {
		return -120
	}
	return db
}
