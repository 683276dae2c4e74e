// Package logging builds the logrus handle passed explicitly through the
// server. Nothing in this package keeps process-wide state.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry aliases the logrus entry so callers do not import logrus for types.
type Entry = logrus.Entry

// Fields aliases logrus fields.
type Fields = logrus.Fields

// Options configures a logger.
type Options struct {
	// Level is a logrus level name. Empty means info.
	Level string
	// Output receives log lines. Nil means stderr; stdout is reserved for
	// the stdio transport.
	Output io.Writer
	// Component is attached to every entry when set.
	Component string
}

// New builds a logger entry from opts.
func New(opts Options) (*Entry, error) {
	level := logrus.InfoLevel
	if name := strings.TrimSpace(opts.Level); name != "" {
		parsed, err := logrus.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetLevel(level)
	l.SetOutput(out)
	l.SetFormatter(PlainFormatter{})

	entry := logrus.NewEntry(l)
	if opts.Component != "" {
		entry = entry.WithField("component", opts.Component)
	}
	return entry, nil
}

// Discard returns an entry that drops everything. Useful in tests.
func Discard() *Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Named derives a child entry tagged with component.
func Named(entry *Entry, component string) *Entry {
	if entry == nil {
		entry = Discard()
	}
	if component == "" {
		return entry
	}
	return entry.WithField("component", component)
}

// PlainFormatter renders: [timestamp] [LEVEL] [component] message key=value...
type PlainFormatter struct{}

// Format implements logrus.Formatter.
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}
	parts := make([]string, 0, 5)
	parts = append(parts, fmt.Sprintf("[%s]", entry.Time.UTC().Format(time.RFC3339Nano)))
	parts = append(parts, fmt.Sprintf("[%s]", strings.ToUpper(entry.Level.String())))
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	parts = append(parts, entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		parts = append(parts, fields)
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "component" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
