package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// Capture constants.
const (
	// captureSampleRate is the microphone sample rate in Hz.
	captureSampleRate = 44100

	// captureFrameSize is the number of samples read per frame. One
	// level measurement is reported per frame, which at 44.1kHz lands
	// close to animation-frame cadence.
	captureFrameSize = 1024
)

// LevelFunc receives a normalized 0..1 instantaneous loudness level once
// per captured frame, for live visualization.
type LevelFunc func(level float64)

// CaptureSession is one microphone recording. It accumulates PCM while
// active and, on Stop, returns the whole take as a single WAV-encoded blob
// and releases the device. Stopping an already-stopped session is a no-op
// that returns the previous result.
type CaptureSession struct {
	mu      sync.Mutex
	src     CaptureSource
	onLevel LevelFunc
	release func()

	active  bool
	quit    chan struct{}
	done    chan struct{}
	samples []float64
	result  []byte
}

func newCaptureSession(src CaptureSource, onLevel LevelFunc, release func()) *CaptureSession {
	return &CaptureSession{
		src:     src,
		onLevel: onLevel,
		release: release,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the frame pump.
func (s *CaptureSession) start() error {
	if err := s.src.Start(); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	go s.pump()
	return nil
}

// pump reads frames until the session stops. Read unblocks with an error
// once the source is stopped, which also ends the loop.
func (s *CaptureSession) pump() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		frame, err := s.src.Read()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "CaptureSession.pump",
				"error":    err.Error(),
			}).Debug("Capture read ended")
			return
		}
		s.ingest(frame)
	}
}

// ingest accumulates one frame and reports its loudness level.
func (s *CaptureSession) ingest(frame []int16) {
	floats := make([]float64, len(frame))
	for i, v := range frame {
		floats[i] = float64(v) / 32768.0
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.samples = append(s.samples, floats...)
	onLevel := s.onLevel
	s.mu.Unlock()

	if onLevel != nil {
		onLevel(meterLevel(floats))
	}
}

// Stop ends the recording, releases the capture device, and returns the
// accumulated take as one WAV-encoded byte blob. Stopping a session that
// is not active is a no-op returning the prior result (nil if the session
// never captured anything).
func (s *CaptureSession) Stop() ([]byte, error) {
	s.mu.Lock()
	if !s.active {
		result := s.result
		s.mu.Unlock()
		return result, nil
	}
	s.active = false
	close(s.quit)
	s.mu.Unlock()

	if err := s.src.Stop(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "CaptureSession.Stop",
			"error":    err.Error(),
		}).Warn("Capture device stop reported an error")
	}
	<-s.done

	if s.release != nil {
		s.release()
	}

	s.mu.Lock()
	samples := s.samples
	s.mu.Unlock()

	if len(samples) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "CaptureSession.Stop",
		}).Info("Capture stopped with no audio recorded")
		return nil, nil
	}

	buf := &Buffer{
		Channels:   [][]float64{samples},
		SampleRate: s.src.SampleRate(),
	}
	data, err := EncodeWAV(buf)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = data
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "CaptureSession.Stop",
		"samples":  len(samples),
		"bytes":    len(data),
	}).Info("Capture session stopped")

	return data, nil
}

// portaudioSource wraps a default-device portaudio input stream.
type portaudioSource struct {
	stream *portaudio.Stream
	buf    []int16
}

// newPortaudioSource opens the default capture device. Any failure here is
// surfaced by the engine as a permission error.
func newPortaudioSource() (CaptureSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	buf := make([]int16, captureFrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(captureSampleRate), len(buf), buf)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	return &portaudioSource{stream: stream, buf: buf}, nil
}

func (p *portaudioSource) Start() error {
	return p.stream.Start()
}

func (p *portaudioSource) Read() ([]int16, error) {
	if err := p.stream.Read(); err != nil {
		return nil, err
	}
	out := make([]int16, len(p.buf))
	copy(out, p.buf)
	return out, nil
}

func (p *portaudioSource) Stop() error {
	stopErr := p.stream.Stop()
	closeErr := p.stream.Close()
	portaudio.Terminate()
	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

func (p *portaudioSource) SampleRate() int {
	return captureSampleRate
}
