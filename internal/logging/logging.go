package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

// Logger is a tiny opt-in logger used across packages, backed by a zerolog
// console writer. When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> <formattedMessage> file=<file>\n
//
// where <file> is trimmed and defaults to "(none)".
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitFile controls whether the file field is written.
	OmitFile bool

	// Verbose enables Debugf output.
	Verbose bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) SetVerbose(v bool) { l.Verbose = v }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

// Logf writes one informational line.
func (l *Logger) Logf(file string, format string, args ...any) {
	l.write(zerolog.InfoLevel, file, format, args...)
}

// Debugf writes one line only when Verbose is set.
func (l *Logger) Debugf(file string, format string, args ...any) {
	if l == nil || !l.Verbose {
		return
	}
	l.write(zerolog.DebugLevel, file, format, args...)
}

func (l *Logger) write(level zerolog.Level, file string, format string, args ...any) {
	if !l.Enabled() {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	prefix = ui.Color(prefix, l.PrefixColor)

	out := zerolog.ConsoleWriter{
		Out:        l.Writer,
		NoColor:    ui.ColorDisabled(),
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(any) string {
			return prefix
		},
	}
	zl := zerolog.New(out).Level(zerolog.DebugLevel)

	ev := zl.WithLevel(level)
	if !l.OmitFile {
		f := strings.TrimSpace(file)
		if f == "" {
			f = "(none)"
		}
		ev = ev.Str("file", f)
	}
	ev.Msg(fmt.Sprintf(format, args...))
}
