package reqif

import (
	"io"

	"github.com/jdai-explore/beyond-reqif/internal/logging"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Parser:", PrefixColor: ui.FgCyan}

// SetLogger sets an optional destination for parser logs.
// When set to nil, parser logs are disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

// SetVerbose toggles per-element debug output.
func SetVerbose(v bool) { logger.SetVerbose(v) }

func logf(source string, format string, args ...any) {
	logger.Logf(source, format, args...)
}

func debugf(source string, format string, args ...any) {
	logger.Debugf(source, format, args...)
}
