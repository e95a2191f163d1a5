package voice

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tesserae-audio/graphcore/pkg/metrics"
)

// Manager is the fixed-capacity polyphonic voice pool (spec.md §4.4). It
// generalizes the teacher's pkg/audio/voice.go VoiceManager's
// round-robin-then-steal allocation to sample-based voices, with
// per-source-node accumulation and soft limiting per
// original_source/src/voice_manager.rs's VoiceManager::process.
//
// T is the node identity type (node.IntID or uuid.UUID) used to key
// accumulation buffers by source node; Manager itself does not import
// pkg/node to avoid a dependency cycle (pkg/nodes wires the two
// together).
type Manager[T comparable] struct {
	mu            sync.Mutex
	voices        []Voice[T]
	nextAlloc     int
	defaultSource T
	sampleRate    float64
	accum         map[T][]float32
	log           *logrus.Entry
	metric        *metrics.Voice
}

// NewManager builds a Manager with capacity voice slots.
func NewManager[T comparable](capacity int, sampleRate float64, log *logrus.Entry) *Manager[T] {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager[T]{
		voices:     make([]Voice[T], capacity),
		sampleRate: sampleRate,
		accum:      make(map[T][]float32),
		log:        log.WithField("component", "voice.Manager"),
		metric:     metrics.NewVoice(),
	}
}

// SetDefaultSource records the NODE-ID that Trigger should attribute new
// voices to. Callers set this immediately before Trigger, matching
// original_source's set_default_source_node/trigger_sample_with_envelope
// pairing.
func (m *Manager[T]) SetDefaultSource(source T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultSource = source
}

// Trigger allocates a voice for sampleData per the allocation algorithm
// in spec.md §4.4: scan forward from the round-robin index for an
// inactive slot; if none is free, steal the slot with the largest
// age_samples. Returns the claimed voice's index so the caller can
// record its trigger offset via SetTriggerOffset.
func (m *Manager[T]) Trigger(sampleData []float32, gain, pan, speed float32, cutGroup *int, attackSeconds, releaseSeconds float32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metric.TriggersTotal.Inc()

	n := len(m.voices)
	claimed := -1
	for i := 0; i < n; i++ {
		idx := (m.nextAlloc + i) % n
		if !m.voices[idx].Active {
			claimed = idx
			break
		}
	}

	if claimed == -1 {
		oldestIdx, oldestAge := 0, int64(-1)
		for idx := range m.voices {
			if m.voices[idx].AgeSamples > oldestAge {
				oldestAge = m.voices[idx].AgeSamples
				oldestIdx = idx
			}
		}
		claimed = oldestIdx
		m.metric.Steals.Inc()
	}

	v := &m.voices[claimed]
	v.SampleData = sampleData
	v.Position = 0
	v.Active = true
	v.Gain = gain
	v.Pan = pan
	v.Speed = speed
	v.SourceNode = m.defaultSource
	v.TriggerOffset = 0
	v.CutGroup = cutGroup
	v.AgeSamples = 0
	v.Envelope.Trigger(attackSeconds, releaseSeconds)

	if cutGroup != nil {
		for idx := range m.voices {
			if idx == claimed {
				continue
			}
			other := &m.voices[idx]
			if other.Active && other.CutGroup != nil && *other.CutGroup == *cutGroup {
				other.Envelope.ReleaseNow()
			}
		}
	}

	m.nextAlloc = (claimed + 1) % n
	m.metric.ActiveVoices.Set(float64(m.activeCountLocked()))

	return claimed
}

// SetTriggerOffset records the intra-block sample at which voiceIndex's
// playback should begin, clamped to [0, blockSize-1] by the caller (the
// pattern-sample node, per spec.md §4.5 step 4).
func (m *Manager[T]) SetTriggerOffset(voiceIndex int, offset int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if voiceIndex < 0 || voiceIndex >= len(m.voices) {
		return
	}
	m.voices[voiceIndex].TriggerOffset = offset
}

// RenderBlock advances every active voice by blockSize samples and
// returns each source node's mono accumulation buffer for this block.
// The returned map and its buffers are owned by the Manager and are
// valid only until the next RenderBlock call.
func (m *Manager[T]) RenderBlock(blockSize int) map[T][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	for source := range m.accum {
		buf := m.accum[source]
		for i := range buf {
			buf[i] = 0
		}
	}

	for i := range m.voices {
		v := &m.voices[i]
		if !v.Active {
			continue
		}

		buf, ok := m.accum[v.SourceNode]
		if !ok {
			buf = make([]float32, blockSize)
			m.accum[v.SourceNode] = buf
		} else if len(buf) != blockSize {
			buf = make([]float32, blockSize)
			m.accum[v.SourceNode] = buf
		}

		panGain := equalPowerPanGain(v.Pan)

		for s := 0; s < blockSize; s++ {
			if s < v.TriggerOffset {
				continue
			}
			if !v.Active {
				break
			}

			sample := interpolate(v.SampleData, v.Position)
			envValue := v.Envelope.Advance(m.sampleRate)
			buf[s] += sample * v.Gain * envValue * panGain

			v.Position += float64(v.Speed)
			if v.Position >= float64(len(v.SampleData)) || !v.Envelope.IsActive() {
				v.Active = false
			}
		}

		v.AgeSamples += int64(blockSize)
	}

	for source, buf := range m.accum {
		softLimit(buf)
		m.accum[source] = buf
	}

	m.metric.ActiveVoices.Set(float64(m.activeCountLocked()))

	return m.accum
}

// ActiveVoiceCount returns the number of currently active voices.
func (m *Manager[T]) ActiveVoiceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeCountLocked()
}

func (m *Manager[T]) activeCountLocked() int {
	count := 0
	for i := range m.voices {
		if m.voices[i].Active {
			count++
		}
	}
	return count
}

// interpolate reads data at a fractional position with linear
// interpolation between floor(position) and floor(position)+1, per
// spec.md §4.4. Returns 0 past the end of the buffer.
func interpolate(data []float32, position float64) float32 {
	if len(data) == 0 {
		return 0
	}
	idx := int(math.Floor(position))
	if idx < 0 || idx >= len(data) {
		return 0
	}
	frac := float32(position - float64(idx))
	a := data[idx]
	if idx+1 >= len(data) {
		return a
	}
	b := data[idx+1]
	return a + (b-a)*frac
}

// softLimit applies tanh only to samples whose magnitude exceeds 1, per
// spec.md §4.4's limiting rule, leaving quieter samples untouched.
func softLimit(buf []float32) {
	for i, s := range buf {
		if s > 1 || s < -1 {
			buf[i] = float32(math.Tanh(float64(s)))
		}
	}
}
