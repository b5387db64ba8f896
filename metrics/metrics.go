package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chriskuehl/s3fetch/transfer"
)

// Mode labels.
const (
	ModeMemory = "memory"
	ModeFile   = "file"
)

type Collector struct {
	transfers *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewCollector() *Collector {
	return &Collector{
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3fetch",
			Name:      "transfers_total",
			Help:      "Number of object transfers by mode and outcome.",
		}, []string{"mode", "outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "s3fetch",
			Name:      "transfer_bytes_total",
			Help:      "Number of payload bytes received by successful transfers.",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "s3fetch",
			Name:      "transfer_duration_seconds",
			Help:      "Duration of object transfers.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"mode"}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.transfers.Describe(ch)
	c.bytes.Describe(ch)
	c.duration.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.transfers.Collect(ch)
	c.bytes.Collect(ch)
	c.duration.Collect(ch)
}

// Outcome returns the outcome label for the result of a transfer.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, transfer.ErrNotFound):
		return "not_found"
	case errors.Is(err, transfer.ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, transfer.ErrIO):
		return "io_error"
	default:
		return "transfer_error"
	}
}

// Observe records one finished transfer. A nil Collector is a no-op.
func (c *Collector) Observe(mode string, start time.Time, n int64, err error) {
	if c == nil {
		return
	}
	c.transfers.WithLabelValues(mode, Outcome(err)).Inc()
	c.duration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		c.bytes.WithLabelValues(mode).Add(float64(n))
	}
}
