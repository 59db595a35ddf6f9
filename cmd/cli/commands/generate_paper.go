package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/core/services"
)

// GeneratePaperCmd creates the generatePaper command
func GeneratePaperCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generatePaper",
		Short: "Generate an exam paper from the question bank",
		Long: `Generate an exam paper by filling every configured bucket from the question bank.

Category targets follow the weightage table and difficulty targets follow the
configured difficulty ratio. Use --seed to reproduce a previous paper and
--variants to build several independent papers in one run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, _ := cmd.Flags().GetInt("variants")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			opts := services.PaperOptions{}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				opts.Seed = &seed
			}
			if !dryRun {
				opts.Store = app.Papers
			}

			app.Logger.Debug("generatePaper command",
				zap.Int("variants", variants),
				zap.Bool("seeded", opts.Seed != nil),
				zap.Bool("dry_run", dryRun))

			if variants <= 1 {
				paper, err := services.GeneratePaper(app.Ctx, app.Content, app.Cfg, app.Logger, opts)
				if err != nil {
					return err
				}
				writePaper(app.Out, paper)
				writeRecorded(app, opts, 1)
				return nil
			}

			papers, err := services.GeneratePaperVariants(app.Ctx, app.Content, app.Cfg, app.Logger, variants, opts)
			if err != nil {
				return err
			}
			for i, paper := range papers {
				fmt.Fprintf(app.Out, "\n=== Variant %d of %d ===\n", i+1, len(papers))
				writePaper(app.Out, paper)
			}
			writeRecorded(app, opts, len(papers))

			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Seed for reproducible selection")
	cmd.Flags().Int("variants", 1, "Number of independent papers to generate")
	cmd.Flags().Bool("dry-run", false, "Build without recording the paper")

	return cmd
}

func writeRecorded(app *AppContext, opts services.PaperOptions, count int) {
	if opts.Store == nil {
		return
	}
	fmt.Fprintf(app.Out, "\n✓ Recorded %d paper(s)\n", count)
}
