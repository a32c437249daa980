package audio

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ToneProfile selects the feedback tone a button press produces.
type ToneProfile string

const (
	// ToneClick is a plain percussive click: two overlapping decaying
	// oscillators.
	ToneClick ToneProfile = "click"

	// ToneKeyboard is a mechanical-keyboard variant: a brief
	// high-frequency click, a lower triangle-wave clack, and a filtered
	// noise burst for texture.
	ToneKeyboard ToneProfile = "keyboard"
)

// PlayFeedbackTone synthesizes and plays a short percussive UI tone. It is
// fire-and-forget: every call renders an independent buffer and hands it to
// the mixer, so overlapping presses never interfere. Unknown profiles fall
// back to the plain click.
func (e *Engine) PlayFeedbackTone(profile ToneProfile) {
	e.mu.Lock()
	e.ensureReadyLocked()
	ready := e.ready
	mixRate := e.mixRate
	e.mu.Unlock()

	if !ready {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.PlayFeedbackTone",
			"profile":  string(profile),
		}).Debug("Output not ready, feedback tone skipped")
		return
	}

	var buf *Buffer
	switch profile {
	case ToneKeyboard:
		buf = synthKeyboard(mixRate)
	default:
		buf = synthClick(mixRate)
	}

	e.out.Play(newBufferStreamer(buf, 1.0))
}

// synthClick renders the plain click: two overlapping exponentially
// decaying sine oscillators, the second slightly delayed and lower.
func synthClick(rate int) *Buffer {
	const (
		duration = 0.09 // seconds
		freqA    = 1100.0
		freqB    = 620.0
		decayA   = 0.015 // seconds to 1/e
		decayB   = 0.035
		offsetB  = 0.008 // second oscillator start delay
	)

	n := int(duration * float64(rate))
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(rate)
		s := 0.6 * math.Sin(2*math.Pi*freqA*t) * math.Exp(-t/decayA)
		if t >= offsetB {
			tb := t - offsetB
			s += 0.4 * math.Sin(2*math.Pi*freqB*tb) * math.Exp(-tb/decayB)
		}
		samples[i] = s
	}
	return &Buffer{Channels: [][]float64{samples}, SampleRate: rate}
}

// synthKeyboard renders the mechanical-keyboard tone: three layered
// components mixed into one buffer.
func synthKeyboard(rate int) *Buffer {
	const (
		duration   = 0.08
		clickFreq  = 3800.0 // brief high-frequency click
		clickDecay = 0.004
		clackFreq  = 160.0 // lower triangle-wave clack
		clackDecay = 0.030
		noiseDecay = 0.018 // mechanical-texture noise burst
		noiseAlpha = 0.18  // one-pole low-pass coefficient
	)

	n := int(duration * float64(rate))
	samples := make([]float64, n)
	lp := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(rate)

		click := 0.35 * math.Sin(2*math.Pi*clickFreq*t) * math.Exp(-t/clickDecay)
		clack := 0.45 * triangle(clackFreq*t) * math.Exp(-t/clackDecay)

		// Noise through a one-pole low-pass keeps the burst dull
		// rather than hissy.
		white := rand.Float64()*2 - 1
		lp += noiseAlpha * (white - lp)
		noise := 0.3 * lp * math.Exp(-t/noiseDecay)

		samples[i] = click + clack + noise
	}
	return &Buffer{Channels: [][]float64{samples}, SampleRate: rate}
}

// triangle evaluates a unit triangle wave at phase x (in cycles).
func triangle(x float64) float64 {
	_, frac := math.Modf(x)
	if frac < 0 {
		frac += 1
	}
	return 4*math.Abs(frac-0.5) - 1
}
