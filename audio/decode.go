package audio

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"
	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// opusFrameBufferSize holds one decoded Opus frame: up to 5760 samples
// (120ms at 48kHz) of stereo 16-bit PCM.
const opusFrameBufferSize = 5760 * 2 * 2

// Decode turns an encoded audio byte stream into PCM sample data. WAV
// payloads are detected by their RIFF/WAVE header; anything else is tried
// as an Opus frame. Unsupported bytes fail with ErrDecode, which callers
// treat as non-fatal: the affected button's sound is skipped.
func (e *Engine) Decode(raw []byte) (*Buffer, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	if isWAV(raw) {
		buf, err := decodeWAV(raw)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Engine.Decode",
				"bytes":    len(raw),
				"error":    err.Error(),
			}).Warn("WAV decode failed")
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return buf, nil
	}

	buf, err := decodeOpus(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.Decode",
			"bytes":    len(raw),
			"error":    err.Error(),
		}).Warn("Opus decode failed, payload unsupported")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return buf, nil
}

// isWAV reports whether the payload starts with RIFF/WAVE chunk markers.
func isWAV(raw []byte) bool {
	return len(raw) >= 12 &&
		bytes.Equal(raw[0:4], []byte("RIFF")) &&
		bytes.Equal(raw[8:12], []byte("WAVE"))
}

// decodeWAV decodes an uncompressed waveform container into per-channel
// float samples scaled to [-1, 1].
func decodeWAV(raw []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid wav file")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading wav samples: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels == 0 {
		return nil, fmt.Errorf("wav file has no channels")
	}

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels
	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = wavBitDepth
	}
	scale := float64(int64(1) << (depth - 1))

	buf := &Buffer{
		Channels:   make([][]float64, channels),
		SampleRate: pcm.Format.SampleRate,
	}
	for c := 0; c < channels; c++ {
		buf.Channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = float64(pcm.Data[i*channels+c]) / scale
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "decodeWAV",
		"frames":      frames,
		"channels":    channels,
		"sample_rate": buf.SampleRate,
		"bit_depth":   depth,
	}).Debug("Decoded WAV payload")

	return buf, nil
}

// decodeOpus decodes a single Opus frame into per-channel float samples.
func decodeOpus(raw []byte) (*Buffer, error) {
	dec := opus.NewDecoder()
	out := make([]byte, opusFrameBufferSize)

	bandwidth, isStereo, err := dec.Decode(raw, out)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	sampleCount := len(out) / 2
	channels := 1
	if isStereo {
		channels = 2
		sampleCount /= 2
	}

	buf := &Buffer{
		Channels:   make([][]float64, channels),
		SampleRate: bandwidth.SampleRate(),
	}
	for c := 0; c < channels; c++ {
		buf.Channels[c] = make([]float64, sampleCount)
	}
	for i := 0; i < sampleCount; i++ {
		for c := 0; c < channels; c++ {
			idx := (i*channels + c) * 2
			s := int16(out[idx]) | int16(out[idx+1])<<8
			buf.Channels[c][i] = float64(s) / 32768.0
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "decodeOpus",
		"samples":     sampleCount,
		"channels":    channels,
		"sample_rate": buf.SampleRate,
		"bandwidth":   bandwidth.String(),
	}).Debug("Decoded Opus payload")

	return buf, nil
}
