// This tool writes a DFPWM-encoded sine tone, handy for checking playback
// targets without an audio source at hand.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/cwbudde/dfpwm"
	"github.com/cwbudde/dfpwm/internal/config"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("dfpwm-tone", flag.ContinueOnError)

	output := flagSet.String("output", "tone.dfpwm", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	sampleRate := flagSet.Int("rate", config.DefaultSampleRate, "sample rate in hertz")
	amplitude := flagSet.Int("amplitude", 100, "peak amplitude, 1-127")
	mode := dfpwm.ModeCurrent
	flagSet.TextVar(&mode, "mode", dfpwm.ModeCurrent, "codec mode: current or legacy")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.SampleRate = *sampleRate

	if err := cfg.Validate(); err != nil {
		return err
	}

	if *amplitude < 1 || *amplitude > math.MaxInt8 {
		return fmt.Errorf("amplitude %d out of range [1, %d]", *amplitude, math.MaxInt8)
	}

	if *length <= 0 {
		return fmt.Errorf("length %f must be positive", *length)
	}

	log.Printf("generating a %f sec %s dfpwm tone at %f hz", *length, mode, *frequency)

	samples := sineSamples(*frequency, *length, *sampleRate, *amplitude)
	data := dfpwm.NewEncoder(mode).Encode(samples)

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}

	return nil
}

func sineSamples(frequency, length float64, sampleRate, amplitude int) []int8 {
	numSamples := int(float64(sampleRate) * length)
	samples := make([]int8, numSamples)

	for i := range numSamples {
		fv := math.Sin(float64(i) / float64(sampleRate) * frequency * 2 * math.Pi)
		samples[i] = int8(math.Round(fv * float64(amplitude)))
	}

	return samples
}
