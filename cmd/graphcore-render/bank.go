package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// memoryBank is an in-process pkg/pattern.SampleBank: a plain map from
// sample name to its decoded mono float32 data. Grounded on
// birdnet.go's readAudioData (wav.NewDecoder + bit-depth-to-float32
// divisor), generalized from a fixed 3-second analysis chunk to
// whole-file sample loading.
type memoryBank struct {
	samples map[string][]float32
}

func newMemoryBank() *memoryBank {
	return &memoryBank{samples: make(map[string][]float32)}
}

// Get implements pattern.SampleBank.
func (b *memoryBank) Get(name string) ([]float32, bool) {
	data, ok := b.samples[name]
	return data, ok
}

// loadDir decodes every .wav file directly under dir into the bank,
// keyed by its base filename without extension (e.g. "bd.wav" -> "bd").
func (b *memoryBank) loadDir(dir string, log *logrus.Entry) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading samples directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		data, err := decodeWavFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("skipping unreadable sample file")
			continue
		}
		b.samples[name] = data
		log.WithField("name", name).WithField("frames", len(data)).Debug("loaded sample")
	}

	return nil
}

func decodeWavFile(path string) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	var divisor float32
	switch decoder.BitDepth {
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return nil, fmt.Errorf("%s: unsupported bit depth %d", path, decoder.BitDepth)
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, 4096),
		Format: &audio.Format{SampleRate: int(decoder.SampleRate), NumChannels: int(decoder.NumChans)},
	}

	var samples []float32
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		for i := 0; i < n; i += int(decoder.NumChans) {
			samples = append(samples, float32(buf.Data[i])/divisor)
		}
	}

	return samples, nil
}

// seedBuiltinSamples fills the bank with a handful of synthesized
// percussive samples so the demo harness produces audible output without
// requiring a --samples-dir: an 80 Hz sine-decay "bd" (0.25 s), and
// exponentially decaying white-noise bursts "sd" (0.15 s) and "hh"
// (0.05 s).
func seedBuiltinSamples(b *memoryBank, sampleRate float64) {
	b.samples["bd"] = synthPercussion(sampleRate, 0.25, 80, true)
	b.samples["sd"] = synthPercussion(sampleRate, 0.15, 200, false)
	b.samples["hh"] = synthPercussion(sampleRate, 0.05, 0, false)
}

func synthPercussion(sampleRate float64, durationSeconds float64, toneFreq float64, tonal bool) []float32 {
	n := int(durationSeconds * sampleRate)
	out := make([]float32, n)
	seed := uint64(1)
	for i := range out {
		t := float64(i) / sampleRate
		decay := math.Exp(-t / (durationSeconds / 4))
		var body float64
		if tonal {
			body = math.Sin(2 * math.Pi * toneFreq * t)
		} else {
			seed = seed*6364136223846793005 + 1442695040888963407
			body = float64(int32(seed>>32))/float64(1<<31)
		}
		out[i] = float32(body * decay)
	}
	return out
}
