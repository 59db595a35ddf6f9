package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/exam-allocator/cmd/cli/commands"
	"github.com/jakechorley/exam-allocator/internal/config"
	"github.com/jakechorley/exam-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/exam-allocator/pkg/content"
	"github.com/jakechorley/exam-allocator/pkg/db"
	"github.com/jakechorley/exam-allocator/pkg/postgres"
	"github.com/jakechorley/exam-allocator/pkg/sheetssql"
	"github.com/jakechorley/exam-allocator/pkg/sqlite"
	"github.com/jakechorley/exam-allocator/pkg/utils/logging"
)

var (
	env     string
	closers []func()
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	app := &commands.AppContext{
		Ctx: context.Background(),
		Out: os.Stdout,
	}

	if err := newRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(app *commands.AppContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Exam allocator CLI - Build exam papers and study plans",
		Long:  `A CLI tool for generating weighted exam papers from a question bank and splitting study time across topics.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !commands.NeedsContent(cmd) {
				return initLogger(app)
			}
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for _, closeFn := range closers {
				closeFn()
			}
			closers = nil
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.GeneratePaperCmd(app))
	rootCmd.AddCommand(commands.CuratePaperCmd(app))
	rootCmd.AddCommand(commands.PlanStudyCmd(app))
	rootCmd.AddCommand(commands.ApportionCmd(app))
	rootCmd.AddCommand(commands.ListPapersCmd(app))
	rootCmd.AddCommand(commands.ViewPaperCmd(app))
	rootCmd.AddCommand(commands.ImportContentCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	return rootCmd
}

func initLogger(app *commands.AppContext) error {
	var err error
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))
	return nil
}

// initApp sets up logger, config, content source and paper store.
// Papers are recorded in PostgreSQL when databaseURL is set, otherwise in the
// paper spreadsheet for sheet content, otherwise in the local SQLite file.
func initApp(app *commands.AppContext) error {
	if err := initLogger(app); err != nil {
		return err
	}

	var err error
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.String("content_source", app.Cfg.ContentSource),
		zap.Int("buckets", len(app.Cfg.Buckets)))

	if app.Cfg.DatabaseURL != "" {
		app.Logger.Info("Connecting to PostgreSQL")
		app.Postgres, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, app.Postgres.Close)
		if err := app.Postgres.RunMigrations(app.Ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Papers = app.Postgres
		app.Logger.Debug("PostgreSQL ready")
	}

	switch app.Cfg.ContentSource {
	case config.ContentSourceFile:
		app.Content = content.NewFileSource(app.Cfg.ContentFile)
		app.Logger.Debug("Using content file", zap.String("path", app.Cfg.ContentFile))

	case config.ContentSourcePostgres:
		app.Content = app.Postgres

	case config.ContentSourceSheets:
		if err := initSheets(app); err != nil {
			return err
		}
	}

	if app.Papers == nil && app.Cfg.PaperStorePath != "" {
		app.Logger.Info("Opening local paper store", zap.String("path", app.Cfg.PaperStorePath))
		store, err := sqlite.NewDB(app.Cfg.PaperStorePath)
		if err != nil {
			return fmt.Errorf("failed to open paper store: %w", err)
		}
		closers = append(closers, func() { store.Close() })
		app.Papers = store
	}

	if app.Papers == nil {
		app.Logger.Debug("No paper store configured, papers will not be recorded")
	}

	return nil
}

// initSheets creates the sheets client, the sheet-backed content source and, when no
// database is configured, the SheetsSQL paper store
func initSheets(app *commands.AppContext) error {
	app.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	app.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, env, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}
	app.Logger.Debug("Sheets client initialized successfully")

	app.Content = sheetsclient.NewContentSource(client, *app.Cfg.Sheets)

	if app.Papers != nil || app.Cfg.Sheets.DatabaseSheetID == "" {
		return nil
	}

	schema, err := db.Schema()
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	app.Logger.Info("Connecting to paper sheet", zap.String("spreadsheet_id", app.Cfg.Sheets.DatabaseSheetID))
	ssqlDB, err := sheetssql.NewDB(client, app.Cfg.Sheets.DatabaseSheetID, schema)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	app.Papers = db.NewDB(ssqlDB)
	app.Logger.Info("Paper sheet initialized successfully", zap.Int("tables", len(schema.Tables)))

	return nil
}
