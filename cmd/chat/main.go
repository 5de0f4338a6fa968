// Package main is the terminal chat: one question per line, answered
// against the course table.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/garyellow/ders-bilgi-bot/internal/app"
	"github.com/garyellow/ders-bilgi-bot/internal/config"
	"github.com/garyellow/ders-bilgi-bot/internal/logger"
	"github.com/garyellow/ders-bilgi-bot/internal/session"
)

const prompt = "> "

type flags struct {
	dataset    string
	headerRows int
	table      string
	dataDir    string
	language   string
	timezone   string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:   "ders-chat",
		Short: "Ask questions about the course schedule",
		Long: `Interactive course schedule assistant.

Type a question and press enter. Commands:
  /gecmis  print the whole conversation
  /cikis   quit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), cmd, f)
		},
	}

	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, f, strings.Join(args, " "))
		},
	}
	root.AddCommand(ask)

	pf := root.PersistentFlags()
	pf.StringVar(&f.dataset, "dataset", "", "course table (.xlsx, .csv or .db); overrides "+config.EnvDatasetPath)
	pf.IntVar(&f.headerRows, "header-rows", 0, "leading rows to skip; overrides "+config.EnvDatasetHeaderRows)
	pf.StringVar(&f.table, "table", "", "SQLite table name; overrides "+config.EnvDatasetTable)
	pf.StringVar(&f.dataDir, "data-dir", "", "stopword cache root; overrides "+config.EnvDataDir)
	pf.StringVar(&f.language, "language", "", "stopword language; overrides "+config.EnvStopwordsLanguage)
	pf.StringVar(&f.timezone, "timezone", "", "time zone for \"bugün\"; overrides "+config.EnvTimezone)
	pf.StringVar(&f.logLevel, "log-level", "warn", "log level written to stderr")

	return root
}

// loadConfig reads the environment and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.LoadForMode(config.ChatMode)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("dataset") {
		cfg.DatasetPath = f.dataset
	}
	if changed("header-rows") {
		cfg.DatasetHeaderRows = f.headerRows
	}
	if changed("table") {
		cfg.DatasetTable = f.table
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("language") {
		cfg.StopwordsLanguage = f.language
	}
	if changed("timezone") {
		cfg.Timezone = f.timezone
	}
	cfg.LogLevel = f.logLevel

	if err := cfg.ValidateForMode(config.ChatMode); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(ctx context.Context, cmd *cobra.Command, f flags) (*app.Core, *logger.Logger, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}

	log := logger.NewWithWriter(cfg.LogLevel, cmd.ErrOrStderr()).WithField("service", app.ServiceName)
	core, err := app.BuildCore(ctx, cfg, log, nil)
	if err != nil {
		return nil, log, err
	}
	if cfg.DatasetWatch {
		go func() {
			if err := core.Watch(ctx, log); err != nil {
				log.WithError(err).Warn("Dataset watcher stopped")
			}
		}()
	}
	return core, log, nil
}

func runChat(ctx context.Context, cmd *cobra.Command, f flags) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, log, err := setup(ctx, cmd, f)
	if log != nil {
		defer flush(log)
	}
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	var p string
	if isTerminal(in) {
		p = prompt
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Ders asistanı hazır. Çıkmak için /cikis yazın.")
	}

	err = session.Loop(ctx, in, core.Sessions.Create(), session.NewTerminalSink(cmd.OutOrStdout(), p))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runAsk(ctx context.Context, cmd *cobra.Command, f flags, question string) error {
	core, log, err := setup(ctx, cmd, f)
	if log != nil {
		defer flush(log)
	}
	if err != nil {
		return err
	}

	reply := core.Assistant.Answer(ctx, question)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
	return err
}

func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func flush(log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = log.Shutdown(ctx)
}
