// Package cmd is the persona-panel command line: the panel server and a few
// offline commands working on the stored state.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"persona-panel/config"
	"persona-panel/logs"
	"persona-panel/store"
)

// Version is set at build time with -ldflags "-X persona-panel/cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "persona-panel",
	Short: "Persona generation panel for chat front-ends",
	Long: `persona-panel serves the persona panel: YAML persona drafts generated
and refined through a language model, kept in a capped history, and pushed into
the host application's personas and world-info books.`,
	SilenceUsage: true,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(serveCmd, historyCmd, settingsCmd, templateCmd, promptsCmd, renderCmd, versionCmd)
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(Version))
}

// setup loads .env, the environment and the flags of cmd, and builds the
// logger.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg.ApplyFlags(cmd.Flags())
	log := logs.New(os.Stderr, logs.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)
	return cfg, log, nil
}

// openStore opens the backend selected by cfg: memory when ephemeral, redis
// when a URL is set, files otherwise.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*store.Store, error) {
	var (
		b   store.Backend
		err error
	)
	switch {
	case cfg.Ephemeral:
		b = store.NewMemoryBackend()
	case cfg.RedisURL != "":
		b, err = store.NewRedisBackend(ctx, cfg.RedisURL, "")
	default:
		b, err = store.NewFileBackend(cfg.DataDir)
	}
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	opts := []store.Option{store.WithLogger(log), store.WithDebounce(cfg.Debounce)}
	if cfg.Keyring {
		opts = append(opts, store.WithSecrets(store.KeyringSecrets{Service: "persona-panel"}))
	}
	return store.New(b, opts...), nil
}

// openOffline opens the store for a one-shot command; writes are not
// debounced.
func openOffline(cmd *cobra.Command) (*store.Store, error) {
	cfg, log, err := setup(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Debounce = 0
	return openStore(cmd.Context(), cfg, log)
}

// failures records the first storage failure of st, as offline commands have
// nobody else to report it to.
func failures(st *store.Store) func() error {
	var first error
	st.OnFailure(func(err *store.StorageError) {
		if first == nil {
			first = err
		}
	})
	return func() error { return first }
}
