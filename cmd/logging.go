package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// stderrHook mirrors warnings and errors to a second writer while the main
// log output goes to a file.
type stderrHook struct {
	w         io.Writer
	formatter logrus.Formatter
}

func (h *stderrHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *stderrHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

// setupLogging configures the standard logrus logger. Without a log file all
// output goes to stderr. With one, every enabled level goes to the file and
// warnings and above are also written to stderr. The returned func closes the
// file.
func setupLogging(level, filename string, stderr io.Writer) (func(), error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := logrus.StandardLogger()
	logger.SetLevel(lvl)
	logger.ReplaceHooks(make(logrus.LevelHooks))

	if filename == "" {
		logger.SetOutput(stderr)
		return func() {}, nil
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	logger.AddHook(&stderrHook{w: stderr, formatter: &logrus.TextFormatter{FullTimestamp: true}})
	return func() {
		logger.SetOutput(stderr)
		logger.SetFormatter(&logrus.TextFormatter{})
		logger.ReplaceHooks(make(logrus.LevelHooks))
		_ = f.Close()
	}, nil
}
