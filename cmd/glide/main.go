// Package main provides the CLI entrypoint for glide.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/glide/internal/config"
	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/pattern"
	"github.com/verte-zerg/glide/internal/session"
	"github.com/verte-zerg/glide/internal/store"
	"github.com/verte-zerg/glide/internal/tui"
	"github.com/verte-zerg/glide/internal/wordlist"
)

var flags = defaultPipelineFlags()

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "glide",
		Short:         "Gesture typing on a physical keyboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTypeCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flags.IdleMs, "idle-ms", flags.IdleMs, "idle time in ms before a gesture resolves")
	pf.Float64Var(&flags.DwellFactor, "dwell-factor", flags.DwellFactor, "dwell multiple of the mean that marks an anchor")
	pf.Float64Var(&flags.InflectionDeg, "inflection-deg", flags.InflectionDeg, "direction change in degrees that marks an anchor")
	pf.Float64Var(&flags.HitRadius, "hit-radius", flags.HitRadius, "max distance from a key center that counts as a visit")
	pf.IntVar(&flags.MaxCandidates, "max-candidates", flags.MaxCandidates, "candidates passed to the scorer")
	pf.IntVar(&flags.TapMaxPoints, "tap-max-points", flags.TapMaxPoints, "largest gesture committed as literal text")
	pf.StringVar(&flags.Provider, "scorer", flags.Provider, "scorer backend (local|openai)")
	pf.StringVar(&flags.Model, "model", flags.Model, "model name for the openai scorer")
	pf.StringVar(&flags.BaseURL, "base-url", flags.BaseURL, "API base URL for the openai scorer")
	pf.StringVar(&flags.APIKeyEnv, "api-key-env", flags.APIKeyEnv, "environment variable holding the API key")
	pf.IntVar(&flags.TimeoutMs, "timeout-ms", flags.TimeoutMs, "scorer call timeout in ms")
	pf.IntVar(&flags.BreakerFailures, "breaker-failures", flags.BreakerFailures, "consecutive scorer failures before the breaker opens")
	pf.IntVar(&flags.BreakerResetMs, "breaker-reset-ms", flags.BreakerResetMs, "time in ms the breaker stays open")
	pf.StringVar(&flags.KeymapPath, "keymap", flags.KeymapPath, "key map calibration file (TOML)")
	pf.Float64Var(&flags.KeyWidth, "key-width", flags.KeyWidth, "key width of the built-in layout")
	pf.Float64Var(&flags.KeyHeight, "key-height", flags.KeyHeight, "key height of the built-in layout")
	pf.StringVar(&flags.Lang, "lang", flags.Lang, "dictionary language code")
	pf.StringVar(&flags.DictPath, "dict", flags.DictPath, "dictionary file (one word per line)")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "log level (debug|info|warn|error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLangsCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newPatternsCmd())

	return rootCmd
}

// loadFlags layers the config file under explicitly set flags.
func loadFlags(cmd *cobra.Command) (pipelineFlags, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return pipelineFlags{}, fmt.Errorf("failed to load config: %w", err)
	}
	f := flags
	d := fileCfg.Decoder
	applyIntConfig(cmd, "idle-ms", &f.IdleMs, d.IdleMs)
	applyFloatConfig(cmd, "dwell-factor", &f.DwellFactor, d.DwellFactor)
	applyFloatConfig(cmd, "inflection-deg", &f.InflectionDeg, d.InflectionDeg)
	applyFloatConfig(cmd, "hit-radius", &f.HitRadius, d.HitRadius)
	applyIntConfig(cmd, "max-candidates", &f.MaxCandidates, d.MaxCandidates)
	applyIntConfig(cmd, "tap-max-points", &f.TapMaxPoints, d.TapMaxPoints)
	s := fileCfg.Scorer
	applyStringConfig(cmd, "scorer", &f.Provider, s.Provider)
	applyStringConfig(cmd, "model", &f.Model, s.Model)
	applyStringConfig(cmd, "base-url", &f.BaseURL, s.BaseURL)
	applyStringConfig(cmd, "api-key-env", &f.APIKeyEnv, s.APIKeyEnv)
	applyIntConfig(cmd, "timeout-ms", &f.TimeoutMs, s.TimeoutMs)
	applyIntConfig(cmd, "breaker-failures", &f.BreakerFailures, s.BreakerFailures)
	applyIntConfig(cmd, "breaker-reset-ms", &f.BreakerResetMs, s.BreakerResetMs)
	k := fileCfg.Keymap
	applyStringConfig(cmd, "keymap", &f.KeymapPath, k.Path)
	applyFloatConfig(cmd, "key-width", &f.KeyWidth, k.KeyWidth)
	applyFloatConfig(cmd, "key-height", &f.KeyHeight, k.KeyHeight)
	applyStringConfig(cmd, "lang", &f.Lang, fileCfg.Dictionary.Lang)
	applyStringConfig(cmd, "dict", &f.DictPath, fileCfg.Dictionary.Path)
	return f, nil
}

func runTypeCmd(cmd *cobra.Command, _ []string) error {
	f, err := loadFlags(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := fileLogger(f.LogLevel, config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := buildPipeline(f, logger)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	cache := pattern.New(st, pattern.WithLogger(logger))
	defer cache.Close()
	stopLoad := loadPatterns(cmd.Context(), cache, logger)
	defer stopLoad()

	recorder := session.NewQueueRecorder(st, logger)
	defer recorder.Close()

	model := tui.NewModel(tui.Config{
		Cache:          cache,
		Filter:         p.filter,
		Keys:           p.keys,
		Rows:           keymap.Rows(),
		Scorer:         p.scorer,
		ScoreTimeout:   f.scoreTimeout(),
		SessionOptions: append(p.sessionOptions(), session.WithRecorder(recorder)),
		Logger:         logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadPatterns restores the cache in the background. The returned func
// cancels a load still in progress and waits for it to return.
func loadPatterns(ctx context.Context, cache *pattern.Cache, logger *slog.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cache.Load(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("starting with an empty pattern cache", "err", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// fileLogger writes logs to path so the alternate screen stays clean.
func fileLogger(level, path string) (*slog.Logger, func(), error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	closeFn := func() {
		if cerr := file.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return newLogger(file, lvl), closeFn, nil
}

func stderrLogger(level string) (*slog.Logger, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return newLogger(os.Stderr, lvl), nil
}

func newLogger(w io.Writer, lvl slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newLangsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List available dictionaries",
		Args:  cobra.NoArgs,
		RunE:  runLangsCmd,
	}
}

func runLangsCmd(cmd *cobra.Command, _ []string) error {
	langs, err := wordlist.Langs(config.DefaultDictionaryDir())
	if err != nil {
		return err
	}
	for _, lang := range langs {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), lang); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
