package commands

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/core/services"
)

// PlanStudyCmd creates the planStudy command
func PlanStudyCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planStudy",
		Short: "Split a study budget across topics by weightage and tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var budget *float64
			if cmd.Flags().Changed("budget") {
				hours, _ := cmd.Flags().GetFloat64("budget")
				budget = &hours
				app.Logger.Debug("planStudy command", zap.Float64("budget", hours))
			} else {
				app.Logger.Debug("planStudy command", zap.Float64("configured_budget", app.Cfg.StudyBudgetHours))
			}

			plan, err := services.PlanStudy(app.Ctx, app.Content, app.Cfg, app.Logger, budget, time.Now())
			if err != nil {
				return err
			}

			writePlan(app.Out, plan)
			return nil
		},
	}

	cmd.Flags().Float64("budget", 0, "Study hours to distribute (defaults to studyBudgetHours)")

	return cmd
}
