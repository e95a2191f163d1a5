package nodes

import (
	"github.com/tesserae-audio/graphcore/pkg/buffer"
	"github.com/tesserae-audio/graphcore/pkg/procctx"
	"github.com/tesserae-audio/graphcore/pkg/rational"
)

// viewOf wraps data as a read-only buffer.View for feeding into Process.
func viewOf(data []float32) buffer.View {
	b := buffer.New(len(data))
	m := b.Mutable()
	for i, v := range data {
		m.Set(i, v)
	}
	return b.View()
}

// constView returns a buffer.View of length n filled with value.
func constView(n int, value float32) buffer.View {
	data := make([]float32, n)
	for i := range data {
		data[i] = value
	}
	return viewOf(data)
}

// outBuf allocates a fresh output buffer of length n.
func outBuf(n int) *buffer.Buffer {
	return buffer.New(n)
}

func testCtx(blockSize int, sampleRate float64) *procctx.Context {
	return procctx.New(rational.New(0, 1), 0, blockSize, 120, sampleRate)
}
