package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/core/services"
)

// CuratePaperCmd creates the curatePaper command
func CuratePaperCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curatePaper <question_id>...",
		Short: "Build a paper from exactly the listed questions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			opts := services.PaperOptions{}
			if !dryRun {
				opts.Store = app.Papers
			}

			app.Logger.Debug("curatePaper command", zap.Strings("ids", args), zap.Bool("dry_run", dryRun))

			paper, err := services.CuratePaper(app.Ctx, app.Content, app.Cfg, app.Logger, args, opts.Store)
			if err != nil {
				return err
			}

			writePaper(app.Out, paper)
			writeRecorded(app, opts, 1)

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Build without recording the paper")

	return cmd
}
