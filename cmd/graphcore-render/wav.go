package main

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tesserae-audio/graphcore/pkg/buffer"
)

// wavWriter wraps a go-audio/wav.Encoder for the mono, 16-bit output the
// demo harness produces, mirroring go-audio/wav's write-then-close
// contract the way birdnet.go's readAudioData mirrors its decode side.
type wavWriter struct {
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
}

func newWavWriter(path string, sampleRate float64) (*wavWriter, func(), error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}

	const bitDepth = 16
	enc := wav.NewEncoder(file, int(sampleRate), bitDepth, 1, 1)

	w := &wavWriter{
		file: file,
		enc:  enc,
		buf: &audio.IntBuffer{
			Format:         &audio.Format{SampleRate: int(sampleRate), NumChannels: 1},
			SourceBitDepth: bitDepth,
		},
	}

	closeFn := func() {
		_ = w.enc.Close()
		_ = w.file.Close()
	}

	return w, closeFn, nil
}

// writeBlock converts one rendered block from [-1, 1] float32 to 16-bit
// PCM and appends it to the file.
func (w *wavWriter) writeBlock(view buffer.View) error {
	if cap(w.buf.Data) < view.Len() {
		w.buf.Data = make([]int, view.Len())
	}
	w.buf.Data = w.buf.Data[:view.Len()]

	for i := 0; i < view.Len(); i++ {
		sample := view.At(i)
		if sample > 1 {
			sample = 1
		}
		if sample < -1 {
			sample = -1
		}
		w.buf.Data[i] = int(sample * 32767)
	}

	return w.enc.Write(w.buf)
}
