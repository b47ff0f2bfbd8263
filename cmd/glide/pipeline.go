package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/glide/internal/anchor"
	"github.com/verte-zerg/glide/internal/candidate"
	"github.com/verte-zerg/glide/internal/config"
	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/scorer"
	"github.com/verte-zerg/glide/internal/scorer/openai"
	"github.com/verte-zerg/glide/internal/session"
	"github.com/verte-zerg/glide/internal/wordlist"
)

const (
	providerLocal  = "local"
	providerOpenAI = "openai"
)

// pipelineFlags holds the decoder settings shared by every command.
type pipelineFlags struct {
	IdleMs          int
	DwellFactor     float64
	InflectionDeg   float64
	HitRadius       float64
	MaxCandidates   int
	TapMaxPoints    int
	Provider        string
	Model           string
	BaseURL         string
	APIKeyEnv       string
	TimeoutMs       int
	BreakerFailures int
	BreakerResetMs  int
	KeymapPath      string
	KeyWidth        float64
	KeyHeight       float64
	Lang            string
	DictPath        string
	LogLevel        string
}

func defaultPipelineFlags() pipelineFlags {
	return pipelineFlags{
		IdleMs:          int(session.DefaultIdle / time.Millisecond),
		DwellFactor:     anchor.DefaultDwellFactor,
		InflectionDeg:   anchor.DefaultInflectionDegrees,
		HitRadius:       candidate.DefaultHitRadius,
		MaxCandidates:   candidate.DefaultLimit,
		TapMaxPoints:    session.DefaultTapMaxPoints,
		Provider:        providerLocal,
		Model:           "gpt-4o-mini",
		APIKeyEnv:       "OPENAI_API_KEY",
		TimeoutMs:       int(session.DefaultScoreTimeout / time.Millisecond),
		BreakerFailures: 3,
		BreakerResetMs:  30000,
		KeyWidth:        60,
		KeyHeight:       60,
		Lang:            "en",
		LogLevel:        "info",
	}
}

// pipeline is the assembled decoding stack minus persistence.
type pipeline struct {
	flags      pipelineFlags
	keys       keymap.Static
	words      []string
	filter     *candidate.Filter
	scorer     scorer.Scorer
	anchorOpts []anchor.Option
}

func (f pipelineFlags) validate() error {
	if f.IdleMs <= 0 {
		return fmt.Errorf("--idle-ms must be > 0")
	}
	if f.DwellFactor <= 0 {
		return fmt.Errorf("--dwell-factor must be > 0")
	}
	if f.InflectionDeg <= 0 || f.InflectionDeg > 180 {
		return fmt.Errorf("--inflection-deg must be between 0 and 180")
	}
	if f.HitRadius <= 0 {
		return fmt.Errorf("--hit-radius must be > 0")
	}
	if f.MaxCandidates <= 0 {
		return fmt.Errorf("--max-candidates must be > 0")
	}
	if f.TapMaxPoints <= 0 {
		return fmt.Errorf("--tap-max-points must be > 0")
	}
	if f.TimeoutMs <= 0 {
		return fmt.Errorf("--timeout-ms must be > 0")
	}
	if f.KeyWidth <= 0 || f.KeyHeight <= 0 {
		return fmt.Errorf("--key-width and --key-height must be > 0")
	}
	switch f.Provider {
	case providerLocal, providerOpenAI:
	default:
		return fmt.Errorf("--scorer must be %q or %q", providerLocal, providerOpenAI)
	}
	return nil
}

func (f pipelineFlags) idle() time.Duration {
	return time.Duration(f.IdleMs) * time.Millisecond
}

func (f pipelineFlags) scoreTimeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

func (f pipelineFlags) dictionaryPath() string {
	if f.DictPath != "" {
		return f.DictPath
	}
	return config.DefaultDictionaryPath(f.Lang)
}

func buildPipeline(f pipelineFlags, logger *slog.Logger) (*pipeline, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	keys := keymap.QWERTY(f.KeyWidth, f.KeyHeight)
	if f.KeymapPath != "" {
		loaded, err := keymap.LoadFile(f.KeymapPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load key map: %w", err)
		}
		keys = loaded
	}

	path := f.dictionaryPath()
	words, err := wordlist.Load(path, f.Lang)
	if err != nil {
		return nil, dictionaryLoadError(f.Lang, path, err)
	}
	logger.Debug("dictionary loaded", "lang", f.Lang, "words", len(words))

	sc, err := buildScorer(f, logger)
	if err != nil {
		return nil, err
	}
	return &pipeline{
		flags: f,
		keys:  keys,
		words: words,
		filter: candidate.New(words, keys,
			candidate.WithLimit(f.MaxCandidates),
			candidate.WithHitRadius(f.HitRadius),
		),
		scorer: sc,
		anchorOpts: []anchor.Option{
			anchor.WithDwellFactor(f.DwellFactor),
			anchor.WithInflectionDegrees(f.InflectionDeg),
		},
	}, nil
}

func buildScorer(f pipelineFlags, logger *slog.Logger) (scorer.Scorer, error) {
	if f.Provider == providerLocal {
		return scorer.NewLocal(0), nil
	}
	key := strings.TrimSpace(os.Getenv(f.APIKeyEnv))
	if key == "" {
		return nil, fmt.Errorf("scorer %q needs an API key in $%s", f.Provider, f.APIKeyEnv)
	}
	var opts []openai.Option
	if f.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(f.BaseURL))
	}
	opts = append(opts, openai.WithTimeout(f.scoreTimeout()))
	remote, err := openai.New(key, f.Model, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer: %w", err)
	}
	return scorer.NewBreaker(remote, scorer.BreakerConfig{
		MaxFailures:  f.BreakerFailures,
		ResetTimeout: time.Duration(f.BreakerResetMs) * time.Millisecond,
		Logger:       logger,
	}), nil
}

func (p *pipeline) sessionOptions() []session.Option {
	return []session.Option{
		session.WithIdle(p.flags.idle()),
		session.WithTapMaxPoints(p.flags.TapMaxPoints),
		session.WithAnchorOptions(p.anchorOpts...),
	}
}

func dictionaryLoadError(lang, path string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load dictionary: %v", err),
		fmt.Sprintf("expected dictionary at: %s", path),
		fmt.Sprintf("language %q not found", lang),
		"Run: glide langs",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func parseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q: %w", s, err)
	}
	return lvl, nil
}
