package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"

	cmd "github.com/jdai-explore/beyond-reqif/cmd/beyond-reqif"
	"github.com/jdai-explore/beyond-reqif/internal/apperr"
	"github.com/jdai-explore/beyond-reqif/internal/ui"
)

// Version is set at build time
var Version = "dev"

func main() {
	cmd.SetVersion(Version)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := fang.Execute(
		ctx,
		cmd.GetRootCmd(),
		fang.WithColorSchemeFunc(ui.FangColorScheme),
	); err != nil {
		// A cancelled prompt is not a failure.
		if errors.Is(err, apperr.ErrCancelled) {
			stop()
			os.Exit(0)
		}
		stop()
		os.Exit(1)
	}
}
