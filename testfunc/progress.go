package testfunc

import (
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type ProgressEvent struct {
	Complete    bool
	Transferred int64
	Total       int64
}

// RecordingReporter records progress callbacks in the order they were received.
type RecordingReporter struct {
	events []ProgressEvent
	mu     sync.Mutex
}

func NewRecordingReporter() *RecordingReporter {
	return &RecordingReporter{
		events: make([]ProgressEvent, 0),
	}
}

func (r *RecordingReporter) OnProgress(transferred, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ProgressEvent{Transferred: transferred, Total: total})
}

func (r *RecordingReporter) OnComplete(transferred int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := int64(-1)
	for _, e := range r.events {
		last = e.Total
	}
	r.events = append(r.events, ProgressEvent{Complete: true, Transferred: transferred, Total: last})
}

func (r *RecordingReporter) Events() []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressEvent(nil), r.events...)
}

// AssertDirEntries fails the test unless dir contains exactly the given names.
func AssertDirEntries(t *testing.T, dir string, want []string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Name())
	}
	sort.Strings(got)
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	if diff := cmp.Diff(sorted, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected directory entries (-want +got):\n%s", diff)
	}
}
