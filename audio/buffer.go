package audio

import (
	"math"
	"time"
)

// Buffer is decoded PCM audio ready for low-latency playback: one sample
// slice per channel, values nominally in [-1, 1].
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of samples per channel.
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback duration of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	var peak float64
	for _, ch := range b.Channels {
		for _, s := range ch {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Channels:   make([][]float64, len(b.Channels)),
		SampleRate: b.SampleRate,
	}
	for i, ch := range b.Channels {
		out.Channels[i] = make([]float64, len(ch))
		copy(out.Channels[i], ch)
	}
	return out
}
