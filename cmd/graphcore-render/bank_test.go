package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryBankGetReturnsSeededSample(t *testing.T) {
	b := newMemoryBank()
	seedBuiltinSamples(b, 44100)

	data, ok := b.Get("bd")
	assert.True(t, ok)
	assert.NotEmpty(t, data)
}

func TestMemoryBankGetMissingNameReturnsFalse(t *testing.T) {
	b := newMemoryBank()
	_, ok := b.Get("nonexistent")
	assert.False(t, ok)
}

func TestSynthPercussionDecaysTowardsZero(t *testing.T) {
	data := synthPercussion(44100, 0.1, 100, true)
	assert.NotEmpty(t, data)

	firstQuarter := absMax(data[:len(data)/4])
	lastQuarter := absMax(data[3*len(data)/4:])
	assert.Less(t, lastQuarter, firstQuarter)
}

func TestSynthPercussionIsDeterministic(t *testing.T) {
	a := synthPercussion(44100, 0.05, 0, false)
	b := synthPercussion(44100, 0.05, 0, false)
	assert.Equal(t, a, b)
}

func absMax(data []float32) float32 {
	var max float32
	for _, v := range data {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}
