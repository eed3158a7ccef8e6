package watcher

import (
	"io"

	"github.com/jdai-explore/beyond-reqif/internal/logging"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Watch:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for watcher logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(file string, format string, args ...any) {
	logger.Logf(file, format, args...)
}
