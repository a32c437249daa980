package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sirupsen/logrus"
)

// Engine constants.
const (
	// mixSampleRate is the sample rate of the shared output context. All
	// playback is resampled to it.
	mixSampleRate = 48000

	// resampleQuality is the beep resampler quality: a balance of
	// fidelity and CPU cost.
	resampleQuality = 4
)

// Output is the playback sink behind the engine. The production
// implementation drives the gopxl/beep speaker; tests substitute a
// recording stub so no audio device is needed.
type Output interface {
	// Init prepares the sink at the given sample rate. Called once per
	// session on first use.
	Init(sampleRate int, bufferSize int) error
	// Play starts independent playback of the streamer. Concurrent
	// calls mix; they never cancel each other.
	Play(s beep.Streamer)
}

// CaptureSource supplies PCM frames from a capture device. The production
// implementation wraps a portaudio input stream.
type CaptureSource interface {
	// Start begins delivering frames.
	Start() error
	// Read blocks for the next frame of mono 16-bit samples. It returns
	// an error once the source has been stopped.
	Read() ([]int16, error)
	// Stop releases the device. Safe to call more than once.
	Stop() error
	// SampleRate returns the capture rate in Hz.
	SampleRate() int
}

// CaptureSourceFactory opens a capture source, typically prompting the
// platform for device access.
type CaptureSourceFactory func() (CaptureSource, error)

// Config carries the engine's injectable dependencies. Zero values select
// the production speaker output and portaudio capture.
type Config struct {
	Output        Output
	CaptureSource CaptureSourceFactory
	MixRate       int
}

// Engine owns the one process-wide audio context: synthesis, decode,
// playback, and capture all go through it. It is created once per session,
// initialized lazily on the first sound-producing call, and never torn
// down. All methods are safe for concurrent use.
type Engine struct {
	mu            sync.Mutex
	out           Output
	captureSource CaptureSourceFactory
	mixRate       int
	ready         bool
	capture       *CaptureSession
}

// NewEngine creates the shared audio engine.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		out:           cfg.Output,
		captureSource: cfg.CaptureSource,
		mixRate:       cfg.MixRate,
	}
	if e.out == nil {
		e.out = &speakerOutput{}
	}
	if e.captureSource == nil {
		e.captureSource = newPortaudioSource
	}
	if e.mixRate <= 0 {
		e.mixRate = mixSampleRate
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewEngine",
		"mix_rate": e.mixRate,
	}).Info("Audio engine created")

	return e
}

// EnsureReady lazily initializes the shared output context. It must run
// before any sound-producing operation and is invoked by all of them. If
// the platform denies audio output the failure is logged and swallowed:
// sound operations become silent no-ops and the next call retries.
func (e *Engine) EnsureReady() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureReadyLocked()
}

func (e *Engine) ensureReadyLocked() {
	if e.ready {
		return
	}
	bufferSize := e.mixRate / 10 // 100ms of headroom
	if err := e.out.Init(e.mixRate, bufferSize); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.EnsureReady",
			"mix_rate": e.mixRate,
			"error":    err.Error(),
		}).Warn("Audio output unavailable, sound disabled until next attempt")
		return
	}
	e.ready = true
	logrus.WithFields(logrus.Fields{
		"function": "Engine.EnsureReady",
		"mix_rate": e.mixRate,
	}).Info("Audio output context ready")
}

// Play starts independent playback of a decoded buffer at the given volume
// (0..1). Overlapping calls play simultaneously through the shared mixer;
// none of them is cut off by the others. Playback is fire-and-forget: the
// streamer disposes of itself when the buffer ends.
func (e *Engine) Play(buf *Buffer, volume float64) {
	if buf == nil || buf.Len() == 0 {
		return
	}

	e.mu.Lock()
	e.ensureReadyLocked()
	ready := e.ready
	mixRate := e.mixRate
	e.mu.Unlock()

	if !ready {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.Play",
		}).Debug("Output not ready, playback skipped")
		return
	}

	var s beep.Streamer = newBufferStreamer(buf, volume)
	if buf.SampleRate != mixRate {
		s = beep.Resample(resampleQuality, beep.SampleRate(buf.SampleRate), beep.SampleRate(mixRate), s)
	}
	e.out.Play(s)
}

// StartCapture requests the capture device and begins recording. The
// onLevel callback receives a normalized 0..1 loudness level for every
// captured frame for live visualization. Device denial fails with
// ErrPermission; starting a capture while one is active fails with
// ErrCaptureActive.
func (e *Engine) StartCapture(onLevel LevelFunc) (*CaptureSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.capture != nil {
		return nil, ErrCaptureActive
	}

	src, err := e.captureSource()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Engine.StartCapture",
			"error":    err.Error(),
		}).Error("Capture device denied")
		return nil, fmt.Errorf("%w: %v", ErrPermission, err)
	}

	sess := newCaptureSession(src, onLevel, func() {
		e.mu.Lock()
		e.capture = nil
		e.mu.Unlock()
	})
	if err := sess.start(); err != nil {
		src.Stop()
		return nil, fmt.Errorf("%w: %v", ErrPermission, err)
	}
	e.capture = sess

	logrus.WithFields(logrus.Fields{
		"function":    "Engine.StartCapture",
		"sample_rate": src.SampleRate(),
	}).Info("Capture session started")

	return sess, nil
}

// speakerOutput drives the gopxl/beep speaker.
type speakerOutput struct{}

func (speakerOutput) Init(sampleRate, bufferSize int) error {
	return speaker.Init(beep.SampleRate(sampleRate), bufferSize)
}

func (speakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

// bufferStreamer streams a Buffer through the beep mixer with linear gain.
// Each Play call builds its own streamer, so overlapping playback never
// shares position state.
type bufferStreamer struct {
	buf    *Buffer
	pos    int
	volume float64
}

func newBufferStreamer(buf *Buffer, volume float64) *bufferStreamer {
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	return &bufferStreamer{buf: buf, volume: volume}
}

func (s *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	total := s.buf.Len()
	if s.pos >= total {
		return 0, false
	}

	left := s.buf.Channels[0]
	right := left
	if s.buf.NumChannels() > 1 {
		right = s.buf.Channels[1]
	}

	n := 0
	for ; n < len(samples) && s.pos < total; n++ {
		samples[n][0] = left[s.pos] * s.volume
		samples[n][1] = right[s.pos] * s.volume
		s.pos++
	}
	return n, true
}

func (s *bufferStreamer) Err() error { return nil }
