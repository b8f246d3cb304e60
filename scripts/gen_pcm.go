// Writes the synthetic breathing signal as raw PCM16LE mono, for AUDIO_SOURCE=pcm.
// Defaults come from the same env as the server (AUDIO_SAMPLE_RATE,
// SYNTH_BREATH_BPM, SIM_SEED).
// Run with: go run ./scripts/gen_pcm.go -out breath.pcm -seconds 60
package main

import (
	"bufio"
	"flag"
	"log"
	"os"

	"github.com/Harshitk-cp/breathcosmos/internal/audio"
	"github.com/Harshitk-cp/breathcosmos/internal/config"
)

const chunkSamples = 4096

func main() {
	if err := config.Load(); err != nil {
		log.Printf("Warning: %v", err)
	}

	out := flag.String("out", "breath.pcm", "output file")
	seconds := flag.Float64("seconds", 60, "duration in seconds")
	bpm := flag.Float64("bpm", config.SynthBreathBPM(), "breaths per minute")
	rate := flag.Float64("rate", config.AudioSampleRate(), "sample rate")
	seed := flag.Int64("seed", config.SimSeed(), "noise seed")
	flag.Parse()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	signal := audio.NewBreathSignal(*bpm, *rate, *seed)
	total := int(*seconds * *rate)

	samples := make([]float64, chunkSamples)
	buf := make([]byte, 0, 2*chunkSamples)
	for written := 0; written < total; {
		n := min(chunkSamples, total-written)
		signal.Fill(samples[:n])
		if _, err := w.Write(audio.AppendPCM16(buf[:0], samples[:n])); err != nil {
			log.Fatalf("write: %v", err)
		}
		written += n
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}

	log.Printf("wrote %d samples (%.1fs at %.0f Hz, %.1f bpm) to %s", total, *seconds, *rate, *bpm, *out)
}
