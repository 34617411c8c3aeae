package chrome

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/astra-sim/tracetools/trace"
)

// Placeholder is the token in a trace name template that stands for the
// system id of each shard, e.g. "trace.%d.json".
const Placeholder = "%d"

type templateMatch struct {
	path   string
	id     int
	hasID  bool
	middle string
}

// ExpandTemplate lists the files in the template's directory whose names start
// with the text before the placeholder and end with the text after it.
// Files whose placeholder part is an integer come first in numeric order,
// the rest follow lexicographically. exclude, when non-empty, is skipped.
func ExpandTemplate(template, exclude string) ([]string, error) {
	abs, err := filepath.Abs(template)
	if err != nil {
		return nil, &trace.IOError{Op: "resolve", Path: template, Err: err}
	}
	dir, name := filepath.Split(abs)
	prefix, suffix, ok := strings.Cut(name, Placeholder)
	if !ok {
		return nil, fmt.Errorf("input trace name %q is not a template, want something like \"trace.%s.json\" where %q is the system id",
			template, Placeholder, Placeholder)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &trace.IOError{Op: "list", Path: dir, Err: err}
	}

	excludeAbs := ""
	if exclude != "" {
		if excludeAbs, err = filepath.Abs(exclude); err != nil {
			return nil, &trace.IOError{Op: "resolve", Path: exclude, Err: err}
		}
	}

	var matches []templateMatch
	for _, entry := range entries {
		n := entry.Name()
		if entry.IsDir() || len(n) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, suffix) {
			continue
		}
		path := filepath.Join(dir, n)
		if path == excludeAbs {
			logrus.Warnf("skipping %s: it is the output file", path)
			continue
		}
		m := templateMatch{path: path, middle: n[len(prefix) : len(n)-len(suffix)]}
		if id, err := strconv.Atoi(m.middle); err == nil {
			m.id, m.hasID = id, true
		}
		matches = append(matches, m)
	}

	slices.SortFunc(matches, func(a, b templateMatch) int {
		if a.hasID != b.hasID {
			if a.hasID {
				return -1
			}
			return 1
		}
		if a.hasID && a.id != b.id {
			return cmp.Compare(a.id, b.id)
		}
		return cmp.Compare(a.middle, b.middle)
	})

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}
	if len(paths) == 0 {
		return nil, &trace.IOError{Op: "match", Path: template, Err: os.ErrNotExist}
	}
	return paths, nil
}

// ExpandGlobs expands a comma-separated list of glob patterns. Matches of
// each pattern are sorted, patterns keep their order.
func ExpandGlobs(patterns string) ([]string, error) {
	var paths []string
	for _, pattern := range strings.Split(patterns, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			logrus.Warnf("input pattern %q matched no files", pattern)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, &trace.IOError{Op: "match", Path: patterns, Err: os.ErrNotExist}
	}
	return paths, nil
}
