package log

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
)

// MultiWriter fans every log line out to all appenders.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make([]io.Writer, 0)}
}

func (m *MultiWriter) Write(p []byte) (n int, err error) {
	for _, w := range m.writers {
		_, e := w.Write(p)
		if e != nil {
			err = e
		}
	}
	return len(p), err
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

// Len returns the number of appenders.
func (m *MultiWriter) Len() int {
	return len(m.writers)
}

// buildWriter turns appender configs into a MultiWriter. Console output goes
// to stderr so that command output on stdout stays clean.
func buildWriter(appenders []AppenderConfig) (*MultiWriter, error) {
	w := NewMultiWriter()
	for _, a := range appenders {
		switch a.Type {
		case "console", "":
			w.Add(os.Stderr)
		case "file":
			var opts FileAppenderOptions
			if err := mapstructure.Decode(a.Options, &opts); err != nil {
				return nil, fmt.Errorf("invalid file appender options: %w", err)
			}
			if opts.Filename == "" {
				return nil, fmt.Errorf("file appender requires 'filename' option")
			}
			w.AddFileAppender(opts)
		default:
			return nil, fmt.Errorf("unsupported appender type: %s", a.Type)
		}
	}
	if w.Len() == 0 {
		w.Add(os.Stderr)
	}
	return w, nil
}
