package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StdinPath names standard input in OpenPCM.
const StdinPath = "-"

var stdin io.Reader = os.Stdin

// StreamOptions shape how a source slices its signal into frames.
type StreamOptions struct {
	SampleRate float64
	FFTSize    int
	FrameRate  float64 // frames per second
	Realtime   bool    // pace Next to FrameRate
}

func (o StreamOptions) withDefaults() StreamOptions {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.FFTSize <= 0 {
		o.FFTSize = DefaultFFTSize
	}
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultFrameRate
	}
	return o
}

func (o StreamOptions) limiter() *rate.Limiter {
	if !o.Realtime {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.FrameRate), 1)
}

// PCMSource reads signed 16-bit little-endian mono PCM and emits one frame
// per hop. It satisfies domain.FrameSource.
type PCMSource struct {
	r        io.ReadCloser
	analyser *Analyser
	window   *slidingWindow
	limiter  *rate.Limiter
	logger   *zap.Logger

	raw     []byte
	samples []float64

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func NewPCMSource(r io.ReadCloser, opts StreamOptions, logger *zap.Logger) (*PCMSource, error) {
	opts = opts.withDefaults()
	analyser, err := NewAnalyser(opts.FFTSize, opts.SampleRate)
	if err != nil {
		return nil, err
	}

	hop := hopFor(opts.SampleRate, opts.FrameRate, opts.FFTSize)
	return &PCMSource{
		r:        r,
		analyser: analyser,
		window:   newSlidingWindow(opts.FFTSize),
		limiter:  opts.limiter(),
		logger:   logger,
		raw:      make([]byte, hop*2),
		samples:  make([]float64, hop),
	}, nil
}

// OpenPCMFile opens a raw PCM file as a frame source.
func OpenPCMFile(path string, opts StreamOptions, logger *zap.Logger) (*PCMSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcm file: %w", err)
	}
	src, err := NewPCMSource(f, opts, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// OpenPCM opens path, or standard input for StdinPath. Closing a stdin
// source detaches it without closing the process's stdin, so a later
// session can pick the stream up again.
func OpenPCM(path string, opts StreamOptions, logger *zap.Logger) (*PCMSource, error) {
	if path == StdinPath {
		return NewPCMSource(io.NopCloser(stdin), opts, logger)
	}
	return OpenPCMFile(path, opts, logger)
}

// Next blocks for the next hop of audio. A trailing partial hop is dropped
// and reported as io.EOF.
func (s *PCMSource) Next(ctx context.Context) (domain.SpectralFrame, error) {
	if s.closed.Load() {
		return domain.SpectralFrame{}, ErrSourceClosed
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return domain.SpectralFrame{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return domain.SpectralFrame{}, err
	}

	if _, err := io.ReadFull(s.r, s.raw); err != nil {
		if s.closed.Load() {
			return domain.SpectralFrame{}, ErrSourceClosed
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return domain.SpectralFrame{}, io.EOF
		}
		return domain.SpectralFrame{}, fmt.Errorf("read pcm: %w", err)
	}

	for i := range s.samples {
		s.samples[i] = float64(int16(binary.LittleEndian.Uint16(s.raw[2*i:]))) / 32768
	}
	return s.analyser.Frame(s.window.push(s.samples))
}

// Close releases the underlying reader once. It may be called while Next
// is blocked in a read.
func (s *PCMSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.r.Close()
		s.logger.Debug("pcm source closed", zap.Error(s.closeErr))
	})
	return s.closeErr
}

// AppendPCM16 encodes samples in [-1,1] as signed 16-bit little-endian PCM,
// clipping anything outside that range.
func AppendPCM16(dst []byte, samples []float64) []byte {
	for _, v := range samples {
		v = math.Max(-1, math.Min(1, v))
		dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(v*32767)))
	}
	return dst
}
