// Package stathook records request latencies into an HDR histogram so
// callers can report percentiles without shipping a metrics backend.
package stathook

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/danbahrami/sofetch"
)

// Recorder accumulates settle latencies between 1µs and 60s at three
// significant figures. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram

	starts sync.Map // *http.Request -> time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{
		hist: hdrhistogram.New(int64(time.Microsecond), int64(time.Minute), 3),
	}
}

// Attach registers the recorder's observers on h. The returned closure
// removes them.
func (r *Recorder) Attach(h *sofetch.Hooks) func() {
	unsubs := []func(){
		h.OnRequest(func(ctx context.Context, req *http.Request) error {
			r.starts.Store(req, time.Now())
			return nil
		}),
		h.OnSuccess(func(ctx context.Context, req *http.Request, resp *http.Response) error {
			r.settle(req)
			return nil
		}),
		h.OnError(func(ctx context.Context, req *http.Request, err error) error {
			r.settle(req)
			return nil
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (r *Recorder) settle(req *http.Request) {
	v, ok := r.starts.LoadAndDelete(req)
	if !ok {
		return
	}
	d := time.Since(v.(time.Time))
	r.mu.Lock()
	_ = r.hist.RecordValue(int64(d))
	r.mu.Unlock()
}

// Summary is a point-in-time percentile snapshot.
type Summary struct {
	Count int64
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
}

func (r *Recorder) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Count: r.hist.TotalCount(),
		P50:   time.Duration(r.hist.ValueAtQuantile(50)),
		P90:   time.Duration(r.hist.ValueAtQuantile(90)),
		P99:   time.Duration(r.hist.ValueAtQuantile(99)),
		Max:   time.Duration(r.hist.Max()),
	}
}

// Reset clears the histogram but keeps in-flight start marks.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.hist.Reset()
	r.mu.Unlock()
}
