package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/commands"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/config"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/llm"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/logging"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/styles"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/data/db"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/data/stores"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/debugger"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/integration/gemini"
	"github.com/4ndr0666/4ndr0debugger-sub000/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	var (
		logCloser  func()
		debugApp   = &debugger.App{}
		database   *db.DB
		busCancel  context.CancelFunc
		busStopped sync.WaitGroup
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "4ndr0debugger",
		Usage:     "Review, debug, audit and compare code with Gemini",
		UsageText: "4ndr0debugger [global options] command [command options]",
		Description: `4ndr0debugger streams code reviews, error diagnoses, security audits and
generated documentation for the files you point it at, and can continue any
of them as a follow-up chat.

Run 'compare' to weigh two codebases feature by feature and synthesize a
merged version. Sessions can be saved as versions, restored later, and
exported as a single JSON bundle.

Press Ctrl-C while a response streams to stop it; the partial output is kept.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DEBUGGER_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/debugger.log)",
				Sources:     cli.EnvVars("DEBUGGER_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DEBUGGER_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DEBUGGER_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "model",
				Aliases:     []string{"m"},
				Usage:       "model for streamed responses (overrides config)",
				Sources:     cli.EnvVars("DEBUGGER_MODEL"),
				Destination: &flags.Model,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.Model != "" {
				cfg.Model = flags.Model
			}
			flags.Config = cfg

			// Always log to a file; use explicit path or default to <datadir>/debugger.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = cfg.LogFile()
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			// Apply configured theme (validation ensures name is valid)
			styles.SetTheme(styles.PaletteFor(cfg.Render.Theme))

			// Open database connection
			dbOpts := db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			}
			database, err = db.Open(cfg.DataDir, dbOpts)
			if err != nil && stores.IsCorruptionError(err) {
				log.Warn().Err(err).Msg("database is corrupt, moving it aside")
				backup, rerr := stores.RecoverFromCorruption(cfg.DataDir)
				if rerr != nil {
					return ctx, fmt.Errorf("recover database: %w", rerr)
				}
				log.Warn().Str("backup", backup).Msg("started a new database; saved versions were moved aside")
				database, err = db.Open(cfg.DataDir, dbOpts)
			}
			if err != nil {
				return ctx, fmt.Errorf("open database: %w", err)
			}

			flags.DB = database
			kvStore := stores.NewKVStore(database)

			gen, err := gemini.New(ctx, gemini.Options{APIKey: cfg.APIKey()}, logging.Component("gemini"))
			if err != nil {
				return ctx, fmt.Errorf("create generator: %w", err)
			}

			// Start the event bus; After drains it before exit
			bus := eventbus.New(cfg.Events.Buffer)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			eventbus.NewNotificationRouter(bus).Register()

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			busStopped.Add(1)
			go func() {
				defer busStopped.Done()
				bus.Start(busCtx)
			}()

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			built, err := debugger.NewApp(cfg, kvStore, gen, bus)
			if err != nil {
				return ctx, err
			}
			*debugApp = *built

			if err := debugApp.Ready(); err != nil {
				log.Warn().Err(err).Msg("generator is not configured")
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Deliver buffered events before exit
			if busCancel != nil {
				busCancel()
				busStopped.Wait()
			}

			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	for _, cmd := range commands.NewAnalyzeCmds(flags, debugApp) {
		app = cmd.Register(app)
	}
	app = commands.NewCompareCmd(flags, debugApp).Register(app)
	app = commands.NewVersionsCmd(flags, debugApp).Register(app)
	app = commands.NewBundleCmd(flags, debugApp).Register(app)
	app = commands.NewCommitCmd(flags, debugApp).Register(app)
	app = commands.NewFlagsCmd(flags, debugApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)
	app = commands.NewDBCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	stop()
	if runErr != nil {
		fmt.Println()
		fmt.Println(describe(runErr))
		exitCode = 1
	}

	os.Exit(exitCode)
}

// describe returns the message printed for a failed command. Generation
// failures are reduced to their short user-facing form.
func describe(err error) string {
	switch {
	case errors.Is(err, llm.ErrCancelled), errors.Is(err, context.Canceled):
		return "operation cancelled"
	case errors.Is(err, llm.ErrConfiguration), errors.Is(err, llm.ErrTransport), errors.Is(err, llm.ErrStructuredDecode):
		return llm.Describe(err)
	default:
		return err.Error()
	}
}
