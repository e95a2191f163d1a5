package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestEnvelopeStaysInUnitRangeAndPositionNeverRewinds is a rapid-based
// check of spec.md (P4): a voice's envelope value is always in [0, 1], and
// its playback position is monotonically non-decreasing between triggers.
func TestEnvelopeStaysInUnitRangeAndPositionNeverRewinds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blockSize := rapid.IntRange(1, 64).Draw(t, "blockSize")
		numBlocks := rapid.IntRange(1, 16).Draw(t, "numBlocks")
		sampleLen := rapid.IntRange(1, 2000).Draw(t, "sampleLen")
		attack := float32(rapid.Float64Range(0, 0.2).Draw(t, "attack"))
		release := float32(rapid.Float64Range(0, 0.2).Draw(t, "release"))
		speed := float32(rapid.Float64Range(0.1, 4).Draw(t, "speed"))

		m := NewManager[int](1, 44100, nil)
		m.SetDefaultSource(1)
		idx := m.Trigger(make([]float32, sampleLen), 1, 0, speed, nil, attack, release)

		lastPosition := m.voices[idx].Position
		for block := 0; block < numBlocks; block++ {
			m.RenderBlock(blockSize)

			v := &m.voices[idx]
			assert.GreaterOrEqual(t, v.Envelope.Value, float32(0))
			assert.LessOrEqual(t, v.Envelope.Value, float32(1))

			if v.Active {
				assert.GreaterOrEqual(t, v.Position, lastPosition)
				lastPosition = v.Position
			} else {
				break
			}
		}
	})
}

// TestTriggerStealsTheOldestVoiceUnderPressure is a rapid-based check of
// spec.md (P5): when a full pool must steal a slot, the slot it steals has
// age_samples >= every other slot's age_samples at the moment of the steal.
func TestTriggerStealsTheOldestVoiceUnderPressure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(2, 8).Draw(t, "capacity")
		ages := rapid.SliceOfN(rapid.Int64Range(0, 1_000_000), capacity, capacity).Draw(t, "ages")

		m := NewManager[int](capacity, 44100, nil)
		m.SetDefaultSource(1)
		for i := 0; i < capacity; i++ {
			m.Trigger(make([]float32, 10), 1, 0, 1, nil, 0, 0.01)
		}
		for i := 0; i < capacity; i++ {
			m.voices[i].AgeSamples = ages[i]
		}

		maxAge := ages[0]
		for _, a := range ages {
			if a > maxAge {
				maxAge = a
			}
		}

		stolen := m.Trigger(make([]float32, 10), 1, 0, 1, nil, 0, 0.01)
		require.GreaterOrEqual(t, stolen, 0)
		require.Less(t, stolen, capacity)
		assert.Equal(t, maxAge, ages[stolen])
	})
}

// TestTriggerNeverExceedsCapacityUnderContinuousPressure is a rapid-based
// check of spec.md (B3): a voice manager under continuous trigger pressure
// never exceeds its capacity and Trigger always returns a valid slot index.
func TestTriggerNeverExceedsCapacityUnderContinuousPressure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		triggerCount := rapid.IntRange(1, 200).Draw(t, "triggerCount")

		m := NewManager[int](capacity, 44100, nil)
		m.SetDefaultSource(1)

		for i := 0; i < triggerCount; i++ {
			idx := m.Trigger(make([]float32, 10), 1, 0, 1, nil, 0, 0.01)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, capacity)
			assert.LessOrEqual(t, m.ActiveVoiceCount(), capacity)
		}
	})
}
