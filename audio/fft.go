package audio

import (
	"math"
	"math/cmplx"
)

// Level metering constants.
const (
	// meterFFTSize is the analysis window for level metering. Frames are
	// zero-padded or truncated to this power-of-2 size.
	meterFFTSize = 1024

	// meterReference is the ceiling the root-mean spectrum magnitude is
	// divided by. Chosen so a full-scale tone meters near 1.0.
	meterReference = 0.05
)

// meterLevel computes a normalized 0..1 instantaneous loudness for one
// capture frame: the root-mean magnitude of the FFT-derived spectrum
// divided by a fixed reference ceiling, clamped to 1.
func meterLevel(frame []float64) float64 {
	data := make([]complex128, meterFFTSize)
	n := len(frame)
	if n > meterFFTSize {
		n = meterFFTSize
	}
	for i := 0; i < n; i++ {
		data[i] = complex(frame[i], 0)
	}

	fft(data)

	half := meterFFTSize / 2
	var sum float64
	for i := 0; i < half; i++ {
		m := cmplx.Abs(data[i]) / float64(half)
		sum += m * m
	}
	rms := math.Sqrt(sum / float64(half))

	level := rms / meterReference
	if level > 1 {
		level = 1
	}
	return level
}

// fft computes an in-place radix-2 Cooley-Tukey FFT. len(data) must be a
// power of 2.
func fft(data []complex128) {
	n := len(data)
	if n <= 1 {
		return
	}

	// Bit-reverse ordering
	for i, j := 0, 0; i < n; i++ {
		if j > i {
			data[i], data[j] = data[j], data[i]
		}
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
	}

	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		step := 2 * math.Pi / float64(size)
		for i := 0; i < n; i += size {
			for j := 0; j < halfSize; j++ {
				u := data[i+j]
				v := data[i+j+halfSize] * complex(math.Cos(float64(j)*step), -math.Sin(float64(j)*step))
				data[i+j] = u + v
				data[i+j+halfSize] = u - v
			}
		}
	}
}
