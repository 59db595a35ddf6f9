package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/core/services"
)

// ImportContentCmd creates the importContent command
func ImportContentCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importContent <content_file>",
		Short: "Replace the PostgreSQL question bank with the contents of a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Postgres == nil {
				return fmt.Errorf("importContent requires databaseURL to be configured")
			}

			app.Logger.Debug("importContent command", zap.String("path", args[0]))

			source := content.NewFileSource(args[0])
			loaded, err := services.LoadContent(app.Ctx, source, app.Logger)
			if err != nil {
				return err
			}

			weights, err := source.ListCategoryWeights(app.Ctx)
			if err != nil {
				return err
			}

			if err := app.Postgres.ImportContent(app.Ctx, loaded.Pool.Items(), weights); err != nil {
				return err
			}

			app.Logger.Info("Content imported",
				zap.Int("items", loaded.Pool.Len()),
				zap.Int("categories", len(weights)))
			fmt.Fprintf(app.Out, "\n✓ Imported %d questions and %d category weights\n", loaded.Pool.Len(), len(weights))

			return nil
		},
	}
}
