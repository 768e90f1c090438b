package importer

import (
	"encoding/json"
	"fmt"
	"io"
)

// RunLog is the plain sequential text log of one import run. Every event is
// one line; each processed row additionally gets a pretty-printed dump of
// its final field state. This textual log is the run's audit trail, there is
// no structured result object.
type RunLog struct {
	w io.Writer
}

// NewRunLog creates a run log writing to w.
func NewRunLog(w io.Writer) *RunLog {
	if w == nil {
		w = io.Discard
	}
	return &RunLog{w: w}
}

// Printf writes one formatted line.
func (l *RunLog) Printf(format string, args ...interface{}) {
	fmt.Fprintf(l.w, format+"\n", args...)
}

// Blank writes an empty separator line.
func (l *RunLog) Blank() {
	fmt.Fprintln(l.w)
}

// Dump writes a pretty-printed JSON rendering of v.
func (l *RunLog) Dump(v interface{}) {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		l.Printf("- could not render state: %v", err)
		return
	}
	fmt.Fprintln(l.w, string(out))
}
