package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/core/services"
)

// ListPapersCmd creates the listPapers command
func ListPapersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listPapers",
		Short: "List recorded papers, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.requirePapers()
			if err != nil {
				return err
			}

			papers, err := services.ListPapers(app.Ctx, store, app.Logger)
			if err != nil {
				return err
			}

			writePaperList(app.Out, papers)
			return nil
		},
	}
}

// ViewPaperCmd creates the viewPaper command
func ViewPaperCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewPaper <paper_id>",
		Short: "Show the questions of a recorded paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.requirePapers()
			if err != nil {
				return err
			}

			app.Logger.Debug("viewPaper command", zap.String("paper_id", args[0]))

			recorded, err := services.GetPaper(app.Ctx, store, app.Logger, args[0])
			if err != nil {
				return err
			}

			writeRecordedPaper(app.Out, recorded)
			return nil
		},
	}
}
