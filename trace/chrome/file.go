package chrome

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/astra-sim/tracetools/trace"
	"github.com/astra-sim/tracetools/trace/traceio"
)

// LoadFile reads and decodes the trace file at path.
func LoadFile(path string) (*File, error) {
	data, err := traceio.ReadAll(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, withSource(err, path)
	}
	logrus.Debugf("loaded %d trace events from %s", len(f.TraceEvents), path)
	return f, nil
}

// WriteFile encodes f into path.
func WriteFile(path string, f *File) error {
	if f.TraceEvents == nil {
		f.TraceEvents = []Event{}
	}
	return traceio.WriteJSON(path, f)
}

func withSource(err error, path string) error {
	var perr *trace.ParseError
	if errors.As(err, &perr) && perr.Source == "" {
		perr.Source = path
	}
	return err
}

// RawFile is a trace container whose events are kept as undecoded JSON, so
// that merging never alters an event.
type RawFile struct {
	TraceEvents []json.RawMessage `json:"traceEvents"`
}

func loadRawEvents(path string) ([]json.RawMessage, error) {
	data, err := traceio.ReadAll(path)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &trace.ParseError{Source: path, Reason: fmt.Sprintf("decoding trace: %v", err)}
	}
	raw, ok := probe["traceEvents"]
	if !ok {
		return nil, &trace.ParseError{Source: path, Reason: "missing traceEvents list"}
	}
	var events []json.RawMessage
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, &trace.ParseError{Source: path, Reason: fmt.Sprintf("traceEvents is not a list: %v", err)}
	}
	return events, nil
}

// Merge concatenates the traceEvents lists of paths in the given order.
// Events are not deduplicated, sorted or validated.
func Merge(paths []string) (*RawFile, error) {
	merged := &RawFile{TraceEvents: make([]json.RawMessage, 0)}
	for _, path := range paths {
		events, err := loadRawEvents(path)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("merging %d events from %s", len(events), path)
		merged.TraceEvents = append(merged.TraceEvents, events...)
	}
	return merged, nil
}

// MergeFiles merges paths and writes the result to output.
func MergeFiles(paths []string, output string) error {
	if err := traceio.CheckJSONPath(output); err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input traces to merge")
	}
	merged, err := Merge(paths)
	if err != nil {
		return err
	}
	if err := traceio.WriteJSON(output, merged); err != nil {
		return err
	}
	logrus.Infof("merged %d events from %d traces into %s", len(merged.TraceEvents), len(paths), output)
	return nil
}
