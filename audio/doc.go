// Package audio implements the soundboard's capture and playback pipeline.
//
// The audio processing pipeline:
//
//	Microphone → Capture → Level metering → Trim/Normalize → WAV encode
//	Raw bytes  → Decode  → Buffer cache   → Overlapping playback
//
// One Engine owns the shared output context for the whole session. It is
// created once, lazily initialized on the first sound-producing call, and
// never torn down. Playback mixes through gopxl/beep so overlapping presses
// never cancel each other; capture reads from the default input device via
// gordonklaus/portaudio; decoding understands WAV (go-audio/wav) and Opus
// (pion/opus) payloads.
package audio
