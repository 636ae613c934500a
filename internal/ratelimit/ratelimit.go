// Package ratelimit provides a token bucket used to throttle data
// connection throughput.
//
// The server wraps outgoing data connections with a Writer and the client
// wraps incoming ones with a Reader. A single Limiter may be shared by many
// connections to enforce an aggregate rate.
package ratelimit

import (
	"io"
	"sync"
	"time"
)

// maxWait caps a single sleep so that a large request never blocks for long
// stretches without re-checking the bucket.
const maxWait = time.Second

// Limiter is a token bucket measured in bytes. The bucket holds at most one
// second worth of tokens. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
}

// New returns a limiter allowing bytesPerSecond on average, or nil when the
// rate is not positive. A nil *Limiter never blocks.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	rate := float64(bytesPerSecond)
	return &Limiter{
		rate:   rate,
		burst:  rate,
		tokens: rate,
		last:   time.Now(),
	}
}

// Rate returns the configured bytes per second, or 0 for a nil limiter.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.rate)
}

// refill adds the tokens accrued since the last update. l.mu must be held.
func (l *Limiter) refill(now time.Time) {
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.last = now
}

// WaitN blocks until n bytes may be sent. Requests larger than the bucket
// are granted after at most maxWait, leaving the bucket empty.
func (l *Limiter) WaitN(n int) {
	if l == nil || n <= 0 {
		return
	}

	need := float64(n)

	l.mu.Lock()
	l.refill(time.Now())
	if l.tokens >= need {
		l.tokens -= need
		l.mu.Unlock()
		return
	}
	wait := time.Duration((need - l.tokens) / l.rate * float64(time.Second))
	l.mu.Unlock()

	if wait > maxWait {
		wait = maxWait
	}
	time.Sleep(wait)

	l.mu.Lock()
	l.refill(time.Now())
	l.tokens -= need
	if l.tokens < 0 {
		l.tokens = 0
	}
	l.mu.Unlock()
}

type reader struct {
	r io.Reader
	l *Limiter
}

// NewReader returns r throttled by l. A nil limiter returns r unchanged.
func NewReader(r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{r: r, l: l}
}

// readChunk keeps individual waits short.
const readChunk = 8 * 1024

func (r *reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > readChunk {
		p = p[:readChunk]
	}
	r.l.WaitN(len(p))
	return r.r.Read(p)
}

type writer struct {
	w io.Writer
	l *Limiter
}

// NewWriter returns w throttled by l. A nil limiter returns w unchanged.
func NewWriter(w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{w: w, l: l}
}

const writeChunk = 64 * 1024

func (w *writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := min(written+writeChunk, len(p))
		w.l.WaitN(end - written)
		n, err := w.w.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
