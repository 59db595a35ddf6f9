package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/pkg/core/allocation"
	"github.com/jakechorley/exam-allocator/pkg/core/model"
)

// ApportionCmd creates the apportion command
func ApportionCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apportion <total> <key=percent>...",
		Short: "Split an integer total across weighted keys by largest remainder",
		Args:  cobra.MinimumNArgs(2),
		Annotations: map[string]string{
			standaloneAnnotation: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("total must be a number: %w", err)
			}

			weights, err := parseWeightArgs(args[1:])
			if err != nil {
				return err
			}

			app.Logger.Debug("apportion command", zap.Int("total", total), zap.Int("keys", len(weights)))

			shares := allocation.Apportion(total, weights)

			keys := make([]string, 0, len(weights))
			seen := make(map[string]bool)
			for _, w := range weights {
				if !seen[w.Key] {
					seen[w.Key] = true
					keys = append(keys, w.Key)
				}
			}
			writeApportionment(app.Out, keys, shares)

			return nil
		},
	}
}

// parseWeightArgs parses "key=percent" arguments; a trailing % is allowed
func parseWeightArgs(args []string) ([]model.Weight, error) {
	weights := make([]model.Weight, 0, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("weight must be key=percent, got: %s", arg)
		}

		percent, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percent for %s: %w", key, err)
		}

		weights = append(weights, model.Weight{Key: key, Percent: percent})
	}
	return weights, nil
}
