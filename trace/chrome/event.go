// Package chrome models the Chrome Trace Event Format files exchanged by the
// conversions and merges sharded trace files.
package chrome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/astra-sim/tracetools/trace"
)

// Phase is the "ph" field of a trace event.
type Phase string

const (
	// PhaseBegin opens a duration span.
	PhaseBegin Phase = "B"
	// PhaseEnd closes the innermost span with the same name.
	PhaseEnd Phase = "E"
)

// Event is a single trace event. Only the fields the conversions read or
// write are modeled.
type Event struct {
	PID       int     `json:"pid"`
	TID       int     `json:"tid"`
	Timestamp float64 `json:"ts"`
	Phase     Phase   `json:"ph"`
	Name      string  `json:"name"`
	Args      *Args   `json:"args,omitempty"`

	// badTS holds a ts value that is not a JSON number.
	badTS string
}

// Args carries the event arguments used by the allocator conversion.
type Args struct {
	Type string      `json:"type,omitempty"`
	Size json.Number `json:"size,omitempty"`

	// badSize holds a size value that is not a JSON number.
	badSize string
}

// UnmarshalJSON decodes an event without enforcing field types. A field
// holding an unexpected JSON type is left at its zero value, so events the
// conversions skip never fail a read. Ill-typed ts and args.size values are
// kept and reported by TimestampUs and SizeBytes.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		PID  json.RawMessage `json:"pid"`
		TID  json.RawMessage `json:"tid"`
		TS   json.RawMessage `json:"ts"`
		Ph   json.RawMessage `json:"ph"`
		Name json.RawMessage `json:"name"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{}
	decodeLenient(raw.PID, &e.PID)
	decodeLenient(raw.TID, &e.TID)
	decodeLenient(raw.Ph, &e.Phase)
	decodeLenient(raw.Name, &e.Name)
	if len(raw.TS) > 0 {
		if _, ok := jsonNumber(raw.TS); ok {
			decodeLenient(raw.TS, &e.Timestamp)
		} else {
			e.badTS = string(raw.TS)
		}
	}
	if len(raw.Args) > 0 {
		var args Args
		if err := json.Unmarshal(raw.Args, &args); err == nil {
			e.Args = &args
		}
	}
	return nil
}

// UnmarshalJSON decodes event arguments. A non-string type reads as "" and a
// size that is not a JSON number is kept for SizeBytes to reject.
func (a *Args) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("args is null")
	}
	*a = Args{}
	decodeLenient(raw["type"], &a.Type)
	if size, ok := raw["size"]; ok {
		if n, ok := jsonNumber(size); ok {
			a.Size = n
		} else {
			a.badSize = string(size)
		}
	}
	return nil
}

func decodeLenient(raw json.RawMessage, v any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}

// jsonNumber reports whether raw is a JSON number literal, as opposed to a
// string, bool, null or composite value.
func jsonNumber(raw json.RawMessage) (json.Number, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", false
	}
	n, ok := v.(json.Number)
	return n, ok
}

// File is the top-level container of a trace file.
type File struct {
	MetaUser     string  `json:"meta_user,omitempty"`
	TraceEvents  []Event `json:"traceEvents"`
	MetaCPUCount int     `json:"meta_cpu_count,omitempty"`
}

// Type returns args.type, or "" when the event has no arguments.
func (e *Event) Type() string {
	if e.Args == nil {
		return ""
	}
	return e.Args.Type
}

// TimestampUs returns the timestamp rounded to whole microseconds. A ts that
// was not a JSON number is an error.
func (e *Event) TimestampUs() (int64, error) {
	if e.badTS != "" {
		return 0, fmt.Errorf("event %q has invalid timestamp %s", e.Name, e.badTS)
	}
	return int64(math.Round(e.Timestamp)), nil
}

// SizeBytes returns args.size as a byte count. Integral floats such as 1e3
// are accepted. A missing, quoted, fractional or negative size is an error.
func (e *Event) SizeBytes() (int64, error) {
	if e.Args != nil && e.Args.badSize != "" {
		return 0, fmt.Errorf("event %q has non-numeric size %s", e.Name, e.Args.badSize)
	}
	if e.Args == nil || e.Args.Size == "" {
		return 0, fmt.Errorf("event %q has no args.size", e.Name)
	}
	if n, err := strconv.ParseInt(string(e.Args.Size), 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("event %q has negative size %d", e.Name, n)
		}
		return n, nil
	}
	f, err := e.Args.Size.Float64()
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt64 {
		return 0, fmt.Errorf("event %q has invalid size %s", e.Name, e.Args.Size)
	}
	return int64(f), nil
}

// Decode parses a trace file. A document without a traceEvents list is
// rejected.
func Decode(data []byte) (*File, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &trace.ParseError{Reason: fmt.Sprintf("decoding trace: %v", err)}
	}
	if _, ok := probe["traceEvents"]; !ok {
		return nil, &trace.ParseError{Reason: "missing traceEvents list"}
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &trace.ParseError{Reason: fmt.Sprintf("decoding trace events: %v", err)}
	}
	return &f, nil
}
