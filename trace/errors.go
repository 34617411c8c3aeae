package trace

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is classification.
var (
	// ErrParse marks malformed or unexpected input lines and records.
	ErrParse = errors.New("parse error")
	// ErrDuplicateName marks an allocation of a name that is still live.
	ErrDuplicateName = errors.New("duplicate allocation name")
	// ErrUnknownName marks a deallocation of a name that is not live.
	ErrUnknownName = errors.New("unknown allocation name")
	// ErrIO marks missing, unreadable or unwritable files.
	ErrIO = errors.New("i/o error")
	// ErrUnfreed marks allocations still live when a strict finalize runs.
	ErrUnfreed = errors.New("unfreed allocations")
)

// ParseError reports an input line or record that could not be interpreted.
// Line is 1-based for line-oriented sources and 0 when not applicable.
type ParseError struct {
	Source string
	Line   int
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Input != "" {
		fmt.Fprintf(&b, " -- %q", e.Input)
	}
	return b.String()
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NameError reports a violation of the live-allocation invariant.
// Err is ErrDuplicateName or ErrUnknownName.
type NameError struct {
	Name string
	Err  error
}

func (e *NameError) Error() string { return fmt.Sprintf("%v: %q", e.Err, e.Name) }

func (e *NameError) Unwrap() error { return e.Err }

// IOError reports a failed file operation together with the offending path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool { return target == ErrIO }

// UnfreedError lists the allocations still live at a strict finalize.
type UnfreedError struct {
	Names []string
}

func (e *UnfreedError) Error() string {
	const shown = 5
	names := e.Names
	suffix := ""
	if len(names) > shown {
		suffix = fmt.Sprintf(", ... (%d more)", len(names)-shown)
		names = names[:shown]
	}
	return fmt.Sprintf("%v: %d still live at end of trace: %s%s",
		ErrUnfreed, len(e.Names), strings.Join(names, ", "), suffix)
}

// Is reports whether target is ErrUnfreed.
func (e *UnfreedError) Is(target error) bool { return target == ErrUnfreed }
