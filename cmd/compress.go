package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/arviewer/internal/imaging"
	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

func newCompressCmd() *cobra.Command {
	var (
		output string
		force  bool
		opts   = imaging.DefaultOptions()
	)

	cmd := &cobra.Command{
		Use:   "compress <image>",
		Short: "Compress a reference image the way the viewer does",
		Long: `Scales a reference image to --max-width and re-encodes it as JPEG.

Images at or below --threshold bytes are left alone unless --force is given.`,
		Example: `  arviewer compress card.png
  arviewer compress card.png -o card-small.jpg --max-width 640 --quality 0.7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Threshold <= 0 {
				return fmt.Errorf("threshold must be positive, got %d", opts.Threshold)
			}
			input := args[0]
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", input, err)
			}
			file := models.File{
				Name:     filepath.Base(input),
				MIMEType: http.DetectContentType(data),
				Data:     data,
			}

			compressor := imaging.NewCompressor(opts)
			if !force && !compressor.ShouldCompress(file) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is %d bytes, under the %d byte threshold; nothing to do\n", input, file.Size(), compressor.Options().Threshold)
				return nil
			}

			out, err := compressor.Compress(cmd.Context(), file)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(filepath.Dir(input), out.Name)
			}
			if err := os.WriteFile(output, out.Data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			w, h, err := imaging.Dimensions(out.Data)
			if err != nil {
				slog.Warn("Unable to read compressed dimensions", "err", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d bytes (%dx%d)\n", output, file.Size(), out.Size(), w, h)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: <name>.jpg next to the input)")
	cmd.Flags().BoolVar(&force, "force", false, "Compress regardless of size")
	cmd.Flags().IntVar(&opts.MaxWidth, "max-width", opts.MaxWidth, "Maximum output width")
	cmd.Flags().Float64Var(&opts.Quality, "quality", opts.Quality, "JPEG quality (0-1]")
	cmd.Flags().Int64Var(&opts.Threshold, "threshold", opts.Threshold, "Only compress files larger than this many bytes")

	return cmd
}
