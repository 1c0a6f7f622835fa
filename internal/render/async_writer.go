package render

import (
	"image"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncFrameWriter delivers raw RGBA frames to a pipe (a file, an encoder's
// stdin) without letting pipe backpressure stall the render loop. It keeps
// only the latest frame: if the consumer falls behind, intermediate frames
// are dropped rather than queued.
type AsyncFrameWriter struct {
	pipe io.WriteCloser

	mu     sync.Mutex
	latest []byte
	fresh  bool

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  int32 // atomic

	framesWritten uint64 // atomic
	framesDropped uint64 // atomic
	writeErrors   uint64 // atomic
}

// NewAsyncFrameWriter creates a writer delivering to pipe.
func NewAsyncFrameWriter(pipe io.WriteCloser) *AsyncFrameWriter {
	return &AsyncFrameWriter{pipe: pipe}
}

// WriteFrame stores the frame as the latest candidate. Never blocks on the
// pipe; an unconsumed previous frame counts as dropped.
func (w *AsyncFrameWriter) WriteFrame(img *image.RGBA) error {
	w.mu.Lock()
	if w.fresh {
		atomic.AddUint64(&w.framesDropped, 1)
	}
	if cap(w.latest) < len(img.Pix) {
		w.latest = make([]byte, len(img.Pix))
	}
	w.latest = w.latest[:len(img.Pix)]
	copy(w.latest, img.Pix)
	w.fresh = true
	w.mu.Unlock()
	return nil
}

// Start begins the paced delivery goroutine at the given frame rate.
func (w *AsyncFrameWriter) Start(fps int) {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return
	}

	w.stopChan = make(chan struct{})
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		defer atomic.StoreInt32(&w.running, 0)

		interval := time.Second / time.Duration(fps)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("📡 Frame writer started at %d FPS", fps)

		var out []byte
		for {
			select {
			case <-w.stopChan:
				return
			case <-ticker.C:
				w.mu.Lock()
				if !w.fresh {
					w.mu.Unlock()
					continue
				}
				if cap(out) < len(w.latest) {
					out = make([]byte, len(w.latest))
				}
				out = out[:len(w.latest)]
				copy(out, w.latest)
				w.fresh = false
				w.mu.Unlock()

				if _, err := w.pipe.Write(out); err != nil {
					if atomic.AddUint64(&w.writeErrors, 1) == 1 {
						log.Printf("⚠️ Frame writer error: %v", err)
					}
					continue
				}
				atomic.AddUint64(&w.framesWritten, 1)
			}
		}
	}()
}

// Stop halts delivery and waits for the goroutine to exit.
func (w *AsyncFrameWriter) Stop() {
	if atomic.LoadInt32(&w.running) == 0 {
		return
	}
	close(w.stopChan)
	w.wg.Wait()
	log.Println("📡 Frame writer stopped")
}

// Close stops delivery and closes the pipe.
func (w *AsyncFrameWriter) Close() error {
	w.Stop()
	return w.pipe.Close()
}

// Stats returns delivery counters for the status endpoint.
func (w *AsyncFrameWriter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"framesWritten": atomic.LoadUint64(&w.framesWritten),
		"framesDropped": atomic.LoadUint64(&w.framesDropped),
		"writeErrors":   atomic.LoadUint64(&w.writeErrors),
	}
}
