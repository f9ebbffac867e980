// Package scholarflow parses CLI configuration and dispatches the fee
// tracking subcommands over a local database.
package scholarflow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/scholarflow/scholarflow/internal/insight"
	entrypoint "github.com/scholarflow/scholarflow/internal/platform/cmd"
	"github.com/scholarflow/scholarflow/internal/platform/config"
	"github.com/scholarflow/scholarflow/internal/student/ledger"
	"github.com/scholarflow/scholarflow/internal/student/storage"
	"github.com/scholarflow/scholarflow/internal/student/storage/sqlite"
)

// Config holds scholarflow command configuration.
type Config struct {
	DBPath         string `env:"SCHOLARFLOW_DB_PATH" envDefault:"scholarflow.db"`
	GeminiAPIKey   string `env:"GEMINI_API_KEY"`
	GeminiModel    string `env:"SCHOLARFLOW_GEMINI_MODEL" envDefault:"gemini-3-flash-preview"`
	GeminiEndpoint string `env:"SCHOLARFLOW_GEMINI_URL"`
	Debug          bool   `env:"SCHOLARFLOW_DEBUG"`
}

// ParseConfig loads .env overrides and environment variables into a Config.
func ParseConfig() (Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// command is one dispatchable subcommand.
type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *cmdEnv, args []string) error
}

// cmdEnv bundles the dependencies every subcommand shares.
type cmdEnv struct {
	cfg    Config
	store  storage.Store
	svc    *ledger.Service
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func (env *cmdEnv) insightGenerator() *insight.Generator {
	return insight.NewGenerator(insight.Config{
		APIKey:      env.cfg.GeminiAPIKey,
		Model:       env.cfg.GeminiModel,
		GenerateURL: env.cfg.GeminiEndpoint,
		HTTPClient:  http.DefaultClient,
	}, env.log)
}

func commands() []command {
	return []command{
		{"add", "enroll a new student", runAdd},
		{"edit", "update an enrolled student's details", runEdit},
		{"remove", "delete a student and their payment history", runRemove},
		{"list", "list enrolled students with their fee status", runList},
		{"pay", "record a payment and advance the next due date", runPay},
		{"stats", "print dashboard totals", runStats},
		{"export-csv", "export the collection as a spreadsheet", runExportCSV},
		{"backup", "write a JSON backup of all records", runBackup},
		{"restore", "replace all records from a JSON backup", runRestore},
		{"insight", "generate an AI analysis of fee collection", runInsight},
	}
}

// Run dispatches one subcommand against the configured database.
func Run(ctx context.Context, cfg Config, args []string, out, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if len(args) == 0 {
		printUsage(errOut)
		return fmt.Errorf("missing subcommand")
	}

	name := strings.TrimSpace(args[0])
	var cmd command
	for _, candidate := range commands() {
		if candidate.name == name {
			cmd = candidate
			break
		}
	}
	if cmd.name == "" {
		printUsage(errOut)
		return fmt.Errorf("unknown subcommand %q", name)
	}

	return entrypoint.RunWithLogger(ctx, "scholarflow", cfg.Debug, func(ctx context.Context, logger *zap.Logger) error {
		store, err := sqlite.Open(cfg.DBPath, logger)
		if err != nil {
			return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
		}
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				fmt.Fprintf(errOut, "Error: close database: %v\n", closeErr)
			}
		}()

		svc, err := ledger.NewService(store, logger, nil, nil)
		if err != nil {
			return err
		}

		env := &cmdEnv{cfg: cfg, store: store, svc: svc, log: logger, out: out, errOut: errOut}
		return cmd.run(ctx, env, args[1:])
	})
}

func printUsage(w io.Writer) {
	cmds := commands()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].name < cmds[j].name })
	fmt.Fprintln(w, "Usage: scholarflow <subcommand> [flags]")
	fmt.Fprintln(w, "Subcommands:")
	for _, cmd := range cmds {
		fmt.Fprintf(w, "  %-12s %s\n", cmd.name, cmd.summary)
	}
}
