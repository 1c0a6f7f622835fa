package render

import (
	"image"
	"sync/atomic"
)

// FrameSink receives rendered frames. Implementations must not retain the
// image past the call; the renderer reuses its buffer.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// NoopSink discards frames but counts them. Useful headless and in tests.
type NoopSink struct {
	frames uint64
}

// WriteFrame counts and drops the frame.
func (s *NoopSink) WriteFrame(*image.RGBA) error {
	atomic.AddUint64(&s.frames, 1)
	return nil
}

// Close is a no-op.
func (s *NoopSink) Close() error { return nil }

// Frames returns the number of frames written so far.
func (s *NoopSink) Frames() uint64 {
	return atomic.LoadUint64(&s.frames)
}
