// Package cli wires the terminal recorder commands together.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	config "github.com/meetscribe/backend/config/recorder"
)

func New(cfg *config.Config, log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "meetscribe-recorder",
		Short:         "Record meetings with live captions and submit them to the backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRecordCmd(cfg, log),
		newListCmd(cfg),
	)

	return root
}
