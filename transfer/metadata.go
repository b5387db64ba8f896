package transfer

import (
	"fmt"
	"net/http"
	"sort"
)

// Metadata describes the transport response of a single transfer.
type Metadata struct {
	StatusCode int
	Header     http.Header
}

// Lines renders the metadata as a status line followed by one "name:value" line per header
// value. Header names are sorted; values of a repeated header keep the order they were received
// in.
func (m Metadata) Lines() []string {
	names := make([]string, 0, len(m.Header))
	for name := range m.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{fmt.Sprintf("HTTP %d", m.StatusCode)}
	for _, name := range names {
		for _, value := range m.Header[name] {
			lines = append(lines, name+":"+value)
		}
	}
	return lines
}

// Result is the outcome of an in-memory transfer.
type Result struct {
	Payload  []byte
	Metadata Metadata
}
