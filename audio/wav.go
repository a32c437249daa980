package audio

import (
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

// wavBitDepth is the sample depth of the canonical waveform container.
// Processed recordings are always re-encoded at 16 bits so they survive the
// store/reload round trip without re-decoding ambiguity.
const wavBitDepth = 16

// EncodeWAV serializes a buffer into a standard uncompressed waveform
// container: RIFF/WAVE chunk descriptors, PCM format tag, and interleaved
// 16-bit little-endian samples. Samples are clamped to [-1, 1] before
// quantization.
func EncodeWAV(buf *Buffer) ([]byte, error) {
	if buf == nil || buf.Len() == 0 || buf.NumChannels() == 0 {
		return nil, ErrEmptyBuffer
	}

	channels := buf.NumChannels()
	frames := buf.Len()

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			s := buf.Channels[c][i]
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			data[i*channels+c] = int(s * 32767)
		}
	}

	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, buf.SampleRate, wavBitDepth, channels, 1)
	pcm := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return nil, fmt.Errorf("wav encode failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav finalize failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "EncodeWAV",
		"frames":      frames,
		"channels":    channels,
		"sample_rate": buf.SampleRate,
		"bytes":       len(ws.buf),
	}).Debug("Encoded buffer to WAV container")

	return ws.buf, nil
}

// memWriteSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks back
// to patch chunk sizes into the header, so a plain bytes.Buffer is not
// enough.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if need := m.pos + len(p); need > len(m.buf) {
		grown := make([]byte, need)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:], p)
	m.pos += len(p)
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("invalid seek whence: %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position: %d", next)
	}
	m.pos = next
	return int64(next), nil
}
