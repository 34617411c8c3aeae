package debuglog

import (
	"bufio"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/astra-sim/tracetools/trace"
	"github.com/astra-sim/tracetools/trace/chrome"
	"github.com/astra-sim/tracetools/trace/traceio"
)

// MetaUser is written into the meta_user field of generated timelines.
const MetaUser = "aras"

// maxLineBytes bounds a single log line; simulator lines are far shorter.
const maxLineBytes = 16 << 20

// Options controls timeline generation.
type Options struct {
	// NumNPUs is the number of NPUs in the simulated system. It is recorded
	// as meta_cpu_count and used to sanity-check sys->id values.
	NumNPUs int
	// NPUFrequencyMHz is the NPU clock. Ticks are converted at a fixed 1e-3
	// regardless; the value is only logged.
	NPUFrequencyMHz int
}

// Convert reads a debug log from r and returns the timeline. source names r
// in error messages. Non-candidate lines are skipped; the first candidate
// line that fails to parse aborts the conversion.
func Convert(r io.Reader, source string, opts Options) (*chrome.File, error) {
	out := &chrome.File{
		MetaUser:     MetaUser,
		TraceEvents:  make([]chrome.Event, 0),
		MetaCPUCount: opts.NumNPUs,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo, skipped := 0, 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if !IsCandidate(line) {
			skipped++
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			return nil, &trace.ParseError{Source: source, Line: lineNo, Input: line, Reason: err.Error()}
		}
		if opts.NumNPUs > 0 && (rec.SysID < 0 || rec.SysID >= opts.NumNPUs) {
			logrus.Warnf("%s:%d: sys->id=%d outside of [0, %d)", source, lineNo, rec.SysID, opts.NumNPUs)
		}
		out.TraceEvents = append(out.TraceEvents, rec.Event())
	}
	if err := scanner.Err(); err != nil {
		return nil, &trace.IOError{Op: "read", Path: source, Err: err}
	}

	logrus.Debugf("%s: %d lines, %d events, %d lines skipped", source, lineNo, len(out.TraceEvents), skipped)
	return out, nil
}

// ConvertFile converts the debug log at input into a timeline at output.
func ConvertFile(input, output string, opts Options) error {
	if err := traceio.CheckJSONPath(output); err != nil {
		return err
	}
	rc, err := traceio.Open(input)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	logrus.Debugf("converting %s with %d NPUs at %d MHz", input, opts.NumNPUs, opts.NPUFrequencyMHz)
	timeline, err := Convert(rc, input, opts)
	if err != nil {
		return err
	}
	if err := chrome.WriteFile(output, timeline); err != nil {
		return err
	}
	logrus.Infof("wrote %d timeline events to %s", len(timeline.TraceEvents), output)
	return nil
}
