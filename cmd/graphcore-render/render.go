package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/graph"
	gnode "github.com/tesserae-audio/graphcore/pkg/node"
	"github.com/tesserae-audio/graphcore/pkg/nodes"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
	"github.com/tesserae-audio/graphcore/pkg/rational"
	"github.com/tesserae-audio/graphcore/pkg/voice"
)

// Node IDs for the fixed demo graph. A real host would assign these
// dynamically (pkg/node.NewUUIDID); a small integer enum is simpler for
// a single hard-coded topology, following pkg/graph/graph_test.go's own
// fixed constNode IDs.
const (
	idOscFreq gnode.IntID = iota
	idFilterCutoff
	idFilterResonance
	idOscillator
	idFilter
	idReverbRoom
	idReverbDamping
	idReverbWet
	idReverb
	idPatternSample
	idMix
)

// buildDemoGraph wires a small but representative signal path: a
// band-limited oscillator through a resonant ladder filter into a
// Schroeder reverb, mixed with a pattern-driven sample voice. It
// exercises an oscillator, a filter, a delay-providing effect, the
// pattern-sample node, and the two-input arithmetic mixer in one render
// pass, per SPEC_FULL.md's demo-harness scope.
func buildDemoGraph(cfg renderConfig, bank *memoryBank, log *logrus.Entry) ([]gnode.Node[gnode.IntID], gnode.IntID) {
	voices := voice.NewManager[gnode.IntID](16, cfg.SampleRate, log)

	pat := &stepPattern{Steps: cfg.Steps}

	allNodes := []gnode.Node[gnode.IntID]{
		nodes.NewConstant[gnode.IntID](idOscFreq, float32(cfg.Frequency)),
		nodes.NewConstant[gnode.IntID](idFilterCutoff, float32(cfg.FilterCutoff)),
		nodes.NewConstant[gnode.IntID](idFilterResonance, float32(cfg.FilterResonance)),
		nodes.NewOscillator[gnode.IntID](idOscillator, idOscFreq, cfg.Waveform),
		nodes.NewLadderFilter[gnode.IntID](idFilter, idOscillator, idFilterCutoff, idFilterResonance),
		nodes.NewConstant[gnode.IntID](idReverbRoom, float32(cfg.ReverbRoom)),
		nodes.NewConstant[gnode.IntID](idReverbDamping, float32(cfg.ReverbDamping)),
		nodes.NewConstant[gnode.IntID](idReverbWet, float32(cfg.ReverbWet)),
		nodes.NewReverb[gnode.IntID](idReverb, idFilter, idReverbRoom, idReverbDamping, idReverbWet),
		nodes.NewPatternSampleNode[gnode.IntID](idPatternSample, pat, bank, voices, log),
		nodes.NewArithmetic[gnode.IntID](idMix, idReverb, idPatternSample, nodes.OpAdd),
	}

	return allNodes, idMix
}

// renderConfig carries the harness's tunables; the root command binds
// these to flags via viper.
type renderConfig struct {
	OutputPath      string
	DurationSeconds float64
	SampleRate      float64
	BlockSize       int
	Tempo           float64
	Frequency       float64
	Waveform        nodes.Waveform
	FilterCutoff    float64
	FilterResonance float64
	ReverbRoom      float64
	ReverbDamping   float64
	ReverbWet       float64
	SamplesDir      string
	Steps           []string
}

// runRender builds the graph, drives it block by block for the
// requested duration, and writes the sink's output to a WAV file.
func runRender(cfg renderConfig, log *logrus.Entry) error {
	bank := newMemoryBank()
	seedBuiltinSamples(bank, cfg.SampleRate)
	if cfg.SamplesDir != "" {
		if err := bank.loadDir(cfg.SamplesDir, log); err != nil {
			return fmt.Errorf("loading sample bank: %w", err)
		}
	}

	allNodes, sink := buildDemoGraph(cfg, bank, log)

	processor, err := graph.New(graph.Config{BlockSize: cfg.BlockSize, SampleRate: cfg.SampleRate}, allNodes, sink, log)
	if err != nil {
		return fmt.Errorf("constructing graph: %w", err)
	}

	enc, closeFn, err := newWavWriter(cfg.OutputPath, cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer closeFn()

	totalBlocks := int(cfg.DurationSeconds*cfg.SampleRate) / cfg.BlockSize
	cyclePosition := rational.Zero()
	samplesPerCycle := cfg.SampleRate / cfg.Tempo
	cycleAdvancePerBlock := rational.FromFloat64(float64(cfg.BlockSize)/samplesPerCycle, 1<<24)

	start := time.Now()
	for blockIndex := 0; blockIndex < totalBlocks; blockIndex++ {
		ctx := procctx.New(cyclePosition, int64(blockIndex*cfg.BlockSize), cfg.BlockSize, cfg.Tempo, cfg.SampleRate)

		view, err := processor.RenderBlock(ctx)
		if err != nil {
			return fmt.Errorf("rendering block %d: %w", blockIndex, err)
		}

		if err := enc.writeBlock(view); err != nil {
			return fmt.Errorf("writing block %d: %w", blockIndex, err)
		}

		cyclePosition = cyclePosition.Add(cycleAdvancePerBlock)
	}

	log.WithField("blocks", totalBlocks).
		WithField("elapsed", time.Since(start)).
		WithField("output", cfg.OutputPath).
		Info("render complete")

	return nil
}
