package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/arviewer/internal/assets"
	"github.com/lehigh-university-libraries/arviewer/internal/imaging"
	"github.com/lehigh-university-libraries/arviewer/internal/models"
)

func newValidateCmd() *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check files against a slot's acceptance rules",
		Example: `  arviewer validate --slot tracker target.mind
  arviewer validate --slot image card.png poster.jpg
  arviewer validate --slot model duck.glb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseSlotKind(kindName)
			if err != nil {
				return err
			}
			validator := assets.NewValidator(imaging.NewCompressor(imaging.DefaultOptions()))

			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				file := models.File{Name: filepath.Base(path), Data: data}

				out, err := validator.Validate(cmd.Context(), kind, file)
				if err != nil {
					failed++
					var verr *assets.ValidationError
					if errors.As(err, &verr) {
						fmt.Fprintf(cmd.OutOrStdout(), "REJECT %s: %s\n", path, verr.Reason)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "ERROR  %s: %v\n", path, err)
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK     %s (%s, %d bytes)\n", path, out.MIMEType, out.Size())
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files rejected for the %s slot", failed, len(args), kind)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "slot", "s", "image", "Slot to validate against: tracker, image or model")

	return cmd
}
