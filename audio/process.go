package audio

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// Post-processing constants for recorded audio.
const (
	// DefaultSilenceThreshold is the sample magnitude below which audio
	// counts as silence when locating the trim window.
	DefaultSilenceThreshold = 0.01

	// trimPadding is added on each side of the detected sound region so
	// trimming never clips a transient.
	trimPadding = 50 * time.Millisecond

	// normalizeCeiling is the target peak after normalization. Buffers
	// already peaking at or above it are never attenuated.
	normalizeCeiling = 0.95
)

// TrimNormalize cuts leading and trailing silence from a recording and
// scales it up to the normalize ceiling.
//
// All channels are scanned for the first and last sample whose magnitude
// exceeds threshold. A buffer that never exceeds it is entirely silent and
// is returned unchanged; that is a policy, not an error. Otherwise the
// window is padded by trimPadding on each side (clamped to the buffer),
// copied out, and scaled by ceiling/peak when the resulting peak sits
// below the ceiling. The scale factor is never below 1: an already loud
// recording is left alone.
func TrimNormalize(buf *Buffer, threshold float64) *Buffer {
	if buf == nil || buf.Len() == 0 {
		return buf
	}
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}

	first, last := -1, -1
	for _, ch := range buf.Channels {
		for i, s := range ch {
			if math.Abs(s) > threshold {
				if first < 0 || i < first {
					first = i
				}
				break
			}
		}
		for i := len(ch) - 1; i >= 0; i-- {
			if math.Abs(ch[i]) > threshold {
				if i > last {
					last = i
				}
				break
			}
		}
	}

	if first < 0 {
		logrus.WithFields(logrus.Fields{
			"function":  "TrimNormalize",
			"samples":   buf.Len(),
			"threshold": threshold,
		}).Debug("Buffer entirely silent, returned unchanged")
		return buf
	}

	pad := int(float64(buf.SampleRate) * trimPadding.Seconds())
	start := first - pad
	if start < 0 {
		start = 0
	}
	end := last + pad
	if end > buf.Len()-1 {
		end = buf.Len() - 1
	}

	out := &Buffer{
		Channels:   make([][]float64, len(buf.Channels)),
		SampleRate: buf.SampleRate,
	}
	for i, ch := range buf.Channels {
		out.Channels[i] = make([]float64, end-start+1)
		copy(out.Channels[i], ch[start:end+1])
	}

	peak := out.Peak()
	scale := 1.0
	if peak > 0 && peak < normalizeCeiling {
		scale = normalizeCeiling / peak
		for _, ch := range out.Channels {
			for i := range ch {
				ch[i] *= scale
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "TrimNormalize",
		"in_samples":  buf.Len(),
		"out_samples": out.Len(),
		"trim_start":  start,
		"trim_end":    end,
		"peak":        peak,
		"scale":       scale,
	}).Debug("Trim and normalize completed")

	return out
}
