package profile

import (
	"io"

	"github.com/jdai-explore/beyond-reqif/internal/logging"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

var logger = &logging.Logger{PrefixText: "Profiles:", PrefixColor: ui.FgMagenta, OmitFile: true}

// SetLogger sets an optional destination for profile store logs.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

// SetVerbose toggles load and save debug output.
func SetVerbose(v bool) { logger.SetVerbose(v) }

func logf(file string, format string, args ...any) {
	logger.Logf(file, format, args...)
}

func debugf(format string, args ...any) {
	logger.Debugf("", format, args...)
}
