package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tesserae-audio/graphcore/pkg/nodes"
)

// rootCommand builds the graphcore-render CLI: a single RunE that
// renders the fixed demo graph to a WAV file, following
// tphakala-birdnet-go's cmd/file.Command flag/viper-binding shape.
func rootCommand() *cobra.Command {
	cfg := renderConfig{}
	var waveformName string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "graphcore-render",
		Short: "Render a fixed demo patch through the graphcore node graph to a WAV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.WithField("component", "graphcore-render")

			waveform, err := parseWaveform(waveformName)
			if err != nil {
				return err
			}
			cfg.Waveform = waveform

			if metricsAddr != "" {
				go serveMetrics(metricsAddr, log)
			}

			return runRender(cfg, log)
		},
	}

	cmd.SilenceUsage = true

	cmd.Flags().StringVarP(&cfg.OutputPath, "output", "o", viper.GetString("output"), "Path to the rendered WAV file")
	cmd.Flags().Float64VarP(&cfg.DurationSeconds, "duration", "t", viperFloat("duration", 4.0), "Render duration in seconds")
	cmd.Flags().Float64Var(&cfg.SampleRate, "sample-rate", viperFloat("sample-rate", 44100.0), "Sample rate in Hz")
	cmd.Flags().IntVar(&cfg.BlockSize, "block-size", viperInt("block-size", 512), "Samples rendered per block")
	cmd.Flags().Float64Var(&cfg.Tempo, "tempo", viperFloat("tempo", 2.0), "Cycles per second driving the pattern-sample node")
	cmd.Flags().Float64Var(&cfg.Frequency, "frequency", viperFloat("frequency", 110.0), "Oscillator frequency in Hz")
	cmd.Flags().StringVar(&waveformName, "waveform", "saw", "Oscillator waveform: sine, saw, square, triangle, noise")
	cmd.Flags().Float64Var(&cfg.FilterCutoff, "filter-cutoff", viperFloat("filter-cutoff", 1200.0), "Ladder filter cutoff in Hz")
	cmd.Flags().Float64Var(&cfg.FilterResonance, "filter-resonance", viperFloat("filter-resonance", 1.5), "Ladder filter resonance (0-4)")
	cmd.Flags().Float64Var(&cfg.ReverbRoom, "reverb-room", viperFloat("reverb-room", 0.7), "Reverb room size (0-1)")
	cmd.Flags().Float64Var(&cfg.ReverbDamping, "reverb-damping", viperFloat("reverb-damping", 0.4), "Reverb high-frequency damping (0-1)")
	cmd.Flags().Float64Var(&cfg.ReverbWet, "reverb-wet", viperFloat("reverb-wet", 0.3), "Reverb dry/wet mix (0-1)")
	cmd.Flags().StringVar(&cfg.SamplesDir, "samples-dir", viper.GetString("samples-dir"), "Directory of .wav files to load into the pattern-sample node's bank (in addition to the built-in bd/sd/hh samples)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", viper.GetString("metrics-addr"), "If set, serve Prometheus metrics on this address (e.g. :9090) for the duration of the render")

	var steps string
	cmd.Flags().StringVar(&steps, "pattern", "bd ~ hh ~ sd ~ hh ~", "Space-separated step grid, its steps spread evenly over each cycle; \"~\" is a rest")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if cfg.OutputPath == "" {
			return fmt.Errorf("--output is required")
		}
		cfg.Steps = strings.Fields(steps)
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}
		return nil
	}

	return cmd
}

func parseWaveform(name string) (nodes.Waveform, error) {
	switch strings.ToLower(name) {
	case "sine":
		return nodes.WaveformSine, nil
	case "saw":
		return nodes.WaveformSaw, nil
	case "square":
		return nodes.WaveformSquare, nil
	case "triangle":
		return nodes.WaveformTriangle, nil
	case "noise":
		return nodes.WaveformNoise, nil
	default:
		return 0, fmt.Errorf("unknown waveform %q", name)
	}
}

func serveMetrics(addr string, log *logrus.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("addr", addr).Info("serving prometheus metrics")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("metrics server exited")
	}
}

func viperFloat(key string, def float64) float64 {
	if !viper.IsSet(key) {
		return def
	}
	return viper.GetFloat64(key)
}

func viperInt(key string, def int) int {
	if !viper.IsSet(key) {
		return def
	}
	return viper.GetInt(key)
}

func exitOnError(err error) {
	if err != nil {
		logrus.WithError(err).Error("graphcore-render failed")
		os.Exit(1)
	}
}
