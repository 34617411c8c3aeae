// Package debuglog extracts workload span events from the simulator's
// line-oriented debug log and renders them as a Chrome trace timeline.
package debuglog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/astra-sim/tracetools/trace/chrome"
)

// Markers a line must contain to be considered at all.
const (
	WorkloadMarker = "[workload]"
	DebugMarker    = "[debug]"
	IssueKind      = "issue"
	CallbackKind   = "callback"
)

// Kind is the type of a workload debug record.
type Kind string

const (
	// KindIssue marks a node being issued and opens a span.
	KindIssue Kind = IssueKind
	// KindCallback marks a node completing and closes its span.
	KindCallback Kind = CallbackKind
)

// Phase maps the record kind to the event phase it produces.
func (k Kind) Phase() chrome.Phase {
	if k == KindIssue {
		return chrome.PhaseBegin
	}
	return chrome.PhaseEnd
}

// Record is one workload issue/callback line.
type Record struct {
	Kind     Kind
	SysID    int
	Tick     int64
	NodeID   int64
	NodeName string
	NodeType int
}

var (
	kindRe     = regexp.MustCompile(`\[debug\](?P<kind>[^,]*)`)
	sysIDRe    = regexp.MustCompile(`sys->id=(?P<value>[^,]*)`)
	tickRe     = regexp.MustCompile(`tick=(?P<value>[^,]*)`)
	nodeIDRe   = regexp.MustCompile(`node->id=(?P<value>[^,]*)`)
	nodeNameRe = regexp.MustCompile(`node->name=(?P<value>[^,]*)`)
	nodeTypeRe = regexp.MustCompile(`node_type=(?P<value>.*)$`)
)

// IsCandidate reports whether line is a workload debug record worth parsing.
// Lines that are not candidates are skipped without error.
func IsCandidate(line string) bool {
	if !strings.Contains(line, WorkloadMarker) || !strings.Contains(line, DebugMarker) {
		return false
	}
	return strings.Contains(line, IssueKind) || strings.Contains(line, CallbackKind)
}

// fieldError describes why a candidate line could not be parsed.
type fieldError struct {
	reason string
}

func (e *fieldError) Error() string { return e.reason }

func field(re *regexp.Regexp, line, key string) (string, error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", &fieldError{reason: fmt.Sprintf("missing %q field", key)}
	}
	return m[re.SubexpIndex("value")], nil
}

func intField(re *regexp.Regexp, line, key string) (int64, error) {
	raw, err := field(re, line, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &fieldError{reason: fmt.Sprintf("field %q is not an integer: %q", key, raw)}
	}
	return n, nil
}

// ParseLine extracts a Record from a candidate line.
func ParseLine(line string) (*Record, error) {
	m := kindRe.FindStringSubmatch(line)
	if m == nil {
		return nil, &fieldError{reason: fmt.Sprintf("missing %q marker", DebugMarker)}
	}
	kind := Kind(strings.TrimSpace(m[kindRe.SubexpIndex("kind")]))
	if kind != KindIssue && kind != KindCallback {
		return nil, &fieldError{reason: fmt.Sprintf("unsupported trace type %q", kind)}
	}

	sysID, err := intField(sysIDRe, line, "sys->id")
	if err != nil {
		return nil, err
	}
	tick, err := intField(tickRe, line, "tick")
	if err != nil {
		return nil, err
	}
	nodeID, err := intField(nodeIDRe, line, "node->id")
	if err != nil {
		return nil, err
	}
	nodeName, err := field(nodeNameRe, line, "node->name")
	if err != nil {
		return nil, err
	}
	nodeType, err := intField(nodeTypeRe, line, "node_type")
	if err != nil {
		return nil, err
	}

	return &Record{
		Kind:     kind,
		SysID:    int(sysID),
		Tick:     tick,
		NodeID:   nodeID,
		NodeName: strings.TrimSpace(nodeName),
		NodeType: int(nodeType),
	}, nil
}

// Event renders the record as a trace event. Ticks become microsecond
// timestamps at 1e-3 per tick.
func (r *Record) Event() chrome.Event {
	return chrome.Event{
		PID:       r.SysID,
		TID:       r.NodeType,
		Timestamp: float64(r.Tick) * 1e-3,
		Phase:     r.Kind.Phase(),
		Name:      r.NodeName,
	}
}
