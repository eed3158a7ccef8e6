package compare

import (
	"io"

	"github.com/jdai-explore/beyond-reqif/internal/logging"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Compare:", PrefixColor: ui.FgGreen}

// SetLogger sets an optional destination for comparison logs.
// When set to nil, comparison logs are disabled.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(file string, format string, args ...any) {
	logger.Logf(file, format, args...)
}
