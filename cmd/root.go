package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "arviewer",
		Short: "Image-tracked AR viewer server",
		Long: `arviewer serves a browser AR experience that anchors a 3D model to a printed target image.

Users supply a compiled .mind tracker, the reference image it was compiled from and an
optional glTF model. The server validates and compresses the files, hands them to the
scene as short-lived blob URLs and rebuilds the AR scene each time the user starts it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCompressCmd())
	cmd.AddCommand(newValidateCmd())

	return cmd
}
