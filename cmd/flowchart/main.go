// Package main provides the flowchart CLI: replay YAML scripts against a
// diagram and manage saved documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flowgraph/flowchart/pkg/flowchart"
	"github.com/flowgraph/flowchart/pkg/serialization"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	cfg        *Config
	log        *loggerResult
	serializer *serialization.Serializer
	stderr     io.Writer
}

func (a *app) logger() *slog.Logger { return a.log.Logger }

// setup loads config, logging and the serializer. It runs before every
// command except version.
func (a *app) setup() error {
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	if a.log, err = setupLogger(cfg.Log, a.stderr, a.v.GetBool(FlagVerbose)); err != nil {
		return err
	}
	if a.serializer, err = cfg.Serialization.serializer(); err != nil {
		return err
	}
	a.logger().Debug("config loaded",
		"store", cfg.Store.Driver,
		"direction", cfg.Diagram.Direction,
		"serializer", a.serializer.Describe())
	return nil
}

func (a *app) teardown() {
	if a.log != nil {
		_ = a.log.Close()
	}
}

// store opens the configured document store for one command.
func (a *app) store(ctx context.Context) (flowchart.Store, func(), error) {
	store, release, err := openStore(ctx, a.cfg.Store, a.serializer)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	return store, release, nil
}

// newRootCmd builds the command tree. The returned func releases what the
// command opened and must run after Execute.
func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, func()) {
	a := &app{v: newViper(), stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "flowchart",
		Short: "Author flowcharts from replayable scripts",
		Long: `flowchart replays YAML scripts of diagram operations (create, relate,
update, delete, reback, undo, redo, clean) against an in-memory diagram,
checks expectations along the way and saves the result as a document in
a memory, sqlite, postgres or redis store.

Settings come from flowchart.yaml, FLOWCHART_* environment variables
(a .env file is loaded first) and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.String(FlagConfig, "", "Config file path (default: ./flowchart.yaml)")
	flags.BoolP(FlagVerbose, "v", false, "Enable verbose (debug) logging")
	flags.String(FlagLogFile, "", "Write JSON logs to a rotating file")
	flags.String(FlagLogLevel, "", "Log level: debug, info, warn, error")
	flags.String(FlagStore, "", "Document store: memory, sqlite, postgres, redis")
	flags.String(FlagDSN, "", "Store location: sqlite path, postgres DSN or redis URL")

	// Bind flags to viper keys
	keys := map[string]string{
		FlagLogFile:  "log.file",
		FlagLogLevel: "log.level",
		FlagStore:    "store.driver",
		FlagDSN:      "store.dsn",
	}
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			key = f.Name
		}
		_ = a.v.BindPFlag(key, f)
	})

	rootCmd.AddCommand(
		newVersionCmd(),
		newReplayCmd(a),
		newValidateCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newDeleteCmd(a),
	)
	return rootCmd, a.teardown
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "warning: .env: %v\n", err)
	}

	rootCmd, teardown := newRootCmd(stdout, stderr)
	defer teardown()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
