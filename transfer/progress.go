package transfer

import (
	"io"
	"time"
)

// ProgressReporter receives progress for a single transfer. Calls happen on the goroutine doing
// the transfer, so implementations must return quickly.
type ProgressReporter interface {
	// OnProgress is called periodically. total is -1 if the length is unknown.
	OnProgress(transferred, total int64)
	// OnComplete is called once, after the last OnProgress call, when the transfer succeeded.
	OnComplete(transferred int64)
}

// ProgressReader counts bytes read through it and reports them to an optional reporter, at most
// once per interval.
type ProgressReader struct {
	r        io.Reader
	reporter ProgressReporter
	total    int64
	interval time.Duration

	transferred int64
	reported    int64
	lastReport  time.Time
}

func NewProgressReader(r io.Reader, reporter ProgressReporter, total int64, interval time.Duration) *ProgressReader {
	return &ProgressReader{
		r:        r,
		reporter: reporter,
		total:    total,
		interval: interval,
		reported: -1,
	}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.transferred += int64(n)
	if n > 0 && p.reporter != nil && time.Since(p.lastReport) >= p.interval {
		p.report()
	}
	return n, err
}

func (p *ProgressReader) report() {
	p.reporter.OnProgress(p.transferred, p.total)
	p.reported = p.transferred
	p.lastReport = time.Now()
}

// Transferred returns the number of bytes read so far.
func (p *ProgressReader) Transferred() int64 {
	return p.transferred
}

// Finish flushes a final progress event for any bytes not yet reported and then signals
// completion. It must only be called after a successful transfer.
func (p *ProgressReader) Finish() {
	if p.reporter == nil {
		return
	}
	if p.reported != p.transferred {
		p.report()
	}
	p.reporter.OnComplete(p.transferred)
}
