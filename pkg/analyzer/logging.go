package analyzer

import (
	"io"

	"github.com/jdai-explore/beyond-reqif/internal/logging"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Analyzer:", PrefixColor: ui.FgYellow, OmitFile: true}

// SetLogger sets an optional destination for analyzer logs.
// When set to nil, analyzer logs are disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(file string, format string, args ...any) {
	logger.Logf(file, format, args...)
}
