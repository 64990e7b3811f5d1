// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/audconv/audio"
	"github.com/ik5/audconv/internal/audiotest"
)

// Example_pipeline converts one second of 44.1kHz stereo to 16kHz.
func Example_pipeline() {
	source := audiotest.NewSineSource(44100, 2, 44100, 440.0)
	sink := &audiotest.RecordingSink{}

	cfg := audio.DefaultConfig()
	cfg.Trim.Mode = audio.TrimNone

	spec := audio.AudioSpec{Channels: 2, SourceRate: 44100, TargetRate: 16000}
	p, err := audio.NewPipeline(spec, cfg, sink)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := p.Run(source); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("Output: %d Hz, %d channels, %d-bit\n", sink.Spec.TargetRate, sink.Spec.Channels, audio.BitDepth)
	fmt.Printf("Frames: %d\n", sink.Frames())
	fmt.Printf("State: %s\n", p.State())
	// Output:
	// Output: 16000 Hz, 2 channels, 16-bit
	// Frames: 16000
	// State: finalized
}

// Example_streaming feeds a pipeline packet by packet.
func Example_streaming() {
	frames := audiotest.Deinterleaved(1, audiotest.Silence(8000), audiotest.Tone(16000), audiotest.Silence(8000))
	sink := &audiotest.RecordingSink{}

	cfg := audio.DefaultConfig()
	cfg.Trim = audio.TrimConfig{Mode: audio.TrimTrailing, Threshold: 0.01, GuardFrames: 1600}

	spec := audio.AudioSpec{Channels: 1, SourceRate: 16000, TargetRate: 16000}
	p, _ := audio.NewPipeline(spec, cfg, sink)

	for _, packet := range audiotest.Split(frames, 1152) {
		if err := p.Write(packet); err != nil {
			fmt.Println("error:", err)
			return
		}
	}
	if err := p.Finish(); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("Frames: %d\n", sink.Frames())
	// Output:
	// Frames: 25600
}

// Example_monoMixer demonstrates converting stereo to mono.
func Example_monoMixer() {
	source := audiotest.NewSineSource(16000, 2, 16000, 440.0)
	mono := audio.NewMonoMixer(source)

	fmt.Printf("Input channels: %d\n", source.Channels())
	fmt.Printf("Output channels: %d\n", mono.Channels())
	fmt.Printf("Sample rate: %d Hz\n", mono.SampleRate())
	// Output:
	// Input channels: 2
	// Output channels: 1
	// Sample rate: 16000 Hz
}

func ExampleSilenceTrimmer_Bounds() {
	trimmer, _ := audio.NewSilenceTrimmer(audio.TrimConfig{
		Mode:         audio.TrimHysteresis,
		Threshold:    0.01,
		MinActiveRun: 1024,
	})

	// A 200 frame click is too short to count as sound.
	frames := audiotest.Deinterleaved(2,
		audiotest.Silence(500), audiotest.Tone(200), audiotest.Silence(50),
		audiotest.Tone(2000), audiotest.Silence(5000))

	bounds, _ := trimmer.Bounds(frames, 16000)
	fmt.Printf("Keep [%d, %d)\n", bounds.Start, bounds.End)
	// Output:
	// Keep [750, 3774)
}

func ExampleRegistry_Detect() {
	registry := audio.NewRegistry()

	format, _ := registry.Detect([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), "")
	fmt.Println(format)

	format, _ = registry.Detect(nil, "voice.ogg")
	fmt.Println(format)
	// Output:
	// wav
	// ogg
}
