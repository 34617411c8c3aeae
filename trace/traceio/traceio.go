// Package traceio provides the file access shared by the trace conversions.
// Paths ending in ".sz" are read and written as snappy framed streams; all
// other paths are plain files. Writes go to a temporary sibling file that is
// renamed into place only after the whole output was produced.
package traceio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"

	"github.com/astra-sim/tracetools/trace"
)

// SnappySuffix selects snappy framing for a path.
const SnappySuffix = ".sz"

// IsCompressed reports whether path is read and written through snappy.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, SnappySuffix)
}

// CheckJSONPath verifies that path names a JSON output, optionally compressed.
func CheckJSONPath(path string) error {
	base := strings.TrimSuffix(path, SnappySuffix)
	if filepath.Ext(base) != ".json" {
		return &trace.IOError{Op: "write", Path: path,
			Err: fmt.Errorf("unsupported output format %q, want .json or .json%s", filepath.Ext(base), SnappySuffix)}
	}
	return nil
}

type readCloser struct {
	io.Reader
	f *os.File
}

func (r *readCloser) Close() error { return r.f.Close() }

// Open opens path for reading, decompressing snappy streams transparently.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &trace.IOError{Op: "open", Path: path, Err: err}
	}
	if IsCompressed(path) {
		return &readCloser{Reader: snappy.NewReader(f), f: f}, nil
	}
	return f, nil
}

// ReadAll returns the whole (decompressed) content of path.
func ReadAll(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &trace.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// WriteFile produces path atomically: fill writes the content, and the file
// only appears at path if fill and all flushes succeed.
func WriteFile(path string, fill func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &trace.IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	var sw *snappy.Writer
	if IsCompressed(path) {
		sw = snappy.NewBufferedWriter(tmp)
		w = sw
	}
	if err = fill(w); err != nil {
		return err
	}
	if sw != nil {
		if err = sw.Close(); err != nil {
			return &trace.IOError{Op: "write", Path: path, Err: err}
		}
	}
	if err = tmp.Chmod(0644); err != nil {
		return &trace.IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &trace.IOError{Op: "write", Path: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &trace.IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// WriteJSON encodes v as JSON into path.
func WriteJSON(path string, v any) error {
	return WriteFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return &trace.IOError{Op: "write", Path: path, Err: fmt.Errorf("encoding JSON: %w", err)}
		}
		return nil
	})
}
