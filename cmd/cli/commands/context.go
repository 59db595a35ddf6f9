package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/db"
	"github.com/jakechorley/exam-allocator/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Content  db.ContentSource
	Papers   db.PaperStore // nil when no paper store is configured
	Postgres *postgres.DB  // set when a database URL is configured
	Logger   *zap.Logger
	Ctx      context.Context
	Out      io.Writer
}

// requirePapers returns the paper store or an error explaining how to configure one
func (app *AppContext) requirePapers() (db.PaperStore, error) {
	if app.Papers == nil {
		return nil, fmt.Errorf("no paper store configured: set databaseURL, sheets.databaseSheetID or paperStorePath")
	}
	return app.Papers, nil
}

// standaloneAnnotation marks commands that run without config, content or stores
const standaloneAnnotation = "standalone"

// NeedsContent reports whether cmd needs the config, content source and paper store
// loaded before it runs
func NeedsContent(cmd *cobra.Command) bool {
	return cmd.Annotations[standaloneAnnotation] != "true"
}
