// Package voice implements the fixed-capacity polyphonic voice pool
// (spec.md §4.4): allocation with round-robin-then-steal-oldest,
// per-voice attack/hold/release envelopes, equal-power panning, and
// per-source-node accumulation with soft limiting. It generalizes the
// teacher's pkg/audio/voice.go VoiceManager (MIDI-note voices keyed by
// note/channel) to sample-based voices keyed by a source NODE-ID, per
// original_source/src/voice_manager.rs and nodes/sample_pattern.rs.
package voice

import "math"

// Phase is a voice envelope's current stage.
type Phase int

const (
	// PhaseIdle voices are silent and available for allocation.
	PhaseIdle Phase = iota
	// PhaseAttack rises linearly 0->1 over AttackSeconds.
	PhaseAttack
	// PhaseHold sustains at 1 until release or sample-end.
	PhaseHold
	// PhaseRelease falls linearly 1->0 over ReleaseSeconds, then idles.
	PhaseRelease
)

// Envelope is a voice's attack/hold/release state, generalizing the
// teacher's ADSREnvelope (pkg/util/envelope.go) to the simpler
// attack-hold-release shape spec.md §4.4 specifies for sample playback
// (no decay/sustain stage: a full-amplitude hold replaces sustain).
type Envelope struct {
	Phase          Phase
	Value          float32
	AttackSeconds  float32
	ReleaseSeconds float32
	timeInStage    float32
}

// Trigger resets the envelope to the start of its attack stage.
func (e *Envelope) Trigger(attackSeconds, releaseSeconds float32) {
	e.Phase = PhaseAttack
	e.Value = 0
	e.AttackSeconds = attackSeconds
	e.ReleaseSeconds = releaseSeconds
	e.timeInStage = 0
}

// ReleaseNow forces an attacking or holding envelope into its release
// stage; the release ramp always starts from 1, whatever value the
// envelope held.
func (e *Envelope) ReleaseNow() {
	if e.Phase != PhaseIdle && e.Phase != PhaseRelease {
		e.Phase = PhaseRelease
		e.timeInStage = 0
	}
}

// Advance steps the envelope by one sample and returns its value.
func (e *Envelope) Advance(sampleRate float64) float32 {
	dt := float32(1.0 / sampleRate)

	switch e.Phase {
	case PhaseIdle:
		e.Value = 0

	case PhaseAttack:
		if e.AttackSeconds > 0 {
			e.Value = e.timeInStage / e.AttackSeconds
			if e.Value >= 1.0 {
				e.Value = 1.0
				e.Phase = PhaseHold
				e.timeInStage = 0
			} else {
				e.timeInStage += dt
			}
		} else {
			e.Value = 1.0
			e.Phase = PhaseHold
			e.timeInStage = 0
		}

	case PhaseHold:
		e.Value = 1.0

	case PhaseRelease:
		if e.ReleaseSeconds > 0 {
			e.Value = 1.0 - e.timeInStage/e.ReleaseSeconds
			if e.Value <= 0 {
				e.Value = 0
				e.Phase = PhaseIdle
				e.timeInStage = 0
			} else {
				e.timeInStage += dt
			}
		} else {
			e.Value = 0
			e.Phase = PhaseIdle
			e.timeInStage = 0
		}
	}

	return e.Value
}

// IsActive reports whether the envelope is contributing non-silence.
func (e *Envelope) IsActive() bool {
	return e.Phase != PhaseIdle
}

// Voice is one polyphonic sample-playback slot.
type Voice[T comparable] struct {
	SampleData    []float32
	Position      float64
	Active        bool
	Gain          float32
	Pan           float32
	Speed         float32
	SourceNode    T
	TriggerOffset int
	Envelope      Envelope
	CutGroup      *int
	AgeSamples    int64
}

// equalPowerPanGain returns the scalar attenuation applied when folding a
// panned voice down into its source's single mono accumulation buffer:
// a cosine taper after the teacher's pkg/audio/dsp.go Pan left channel,
// over half that law's angle range, taken here as a single-channel gain
// since spec.md §6 documents the current contract as single-output (the
// StereoSplitter node is an identity passthrough and does not re-expand
// it; see DESIGN.md's Open Question note).
func equalPowerPanGain(pan float32) float32 {
	// angle ranges over [0, pi/4] as pan ranges over [-1, 1]; cos(0)=1
	// at hard left, cos(pi/8)≈0.924 at center, cos(pi/4)≈0.707 at hard
	// right — a gentle taper that never mutes a voice.
	angle := (float64(pan) + 1) * math.Pi / 8
	return float32(math.Cos(angle))
}
