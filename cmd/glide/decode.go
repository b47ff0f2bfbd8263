package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/glide/internal/generator"
	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/session"
)

var (
	decodeWord   string
	decodeKeys   string
	decodeJitter float64
	decodeSeed   int64
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Run one synthetic gesture through the decoder",
		Args:  cobra.NoArgs,
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeWord, "word", "", "word to swipe over the key map")
	cmd.Flags().StringVar(&decodeKeys, "keys", "", "raw key sequence, one sample per key")
	cmd.Flags().Float64Var(&decodeJitter, "jitter", 0, "random sample offset in key map units")
	cmd.Flags().Int64Var(&decodeSeed, "seed", 1, "jitter seed")
	cmd.MarkFlagsMutuallyExclusive("word", "keys")
	cmd.MarkFlagsOneRequired("word", "keys")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, _ []string) error {
	f, err := loadFlags(cmd)
	if err != nil {
		return err
	}
	logger, err := stderrLogger(f.LogLevel)
	if err != nil {
		return err
	}
	p, err := buildPipeline(f, logger)
	if err != nil {
		return err
	}

	gen := generator.New(p.keys, generator.Options{Jitter: decodeJitter, Seed: decodeSeed})
	var points []model.Point
	if decodeWord != "" {
		points = gen.Trajectory(strings.ToLower(decodeWord), time.Now())
	} else {
		points = gen.Tap(decodeKeys, time.Now())
	}
	if len(points) == 0 {
		return fmt.Errorf("no samples: input has no mapped keys")
	}

	resolved := make(chan model.DecodeRecord, 1)
	opts := append(p.sessionOptions(),
		session.WithLogger(logger),
		session.WithObserver(func(ev session.Event) {
			if ev.Kind == session.EventResolved {
				select {
				case resolved <- ev.Record:
				default:
				}
			}
		}),
	)
	s := session.New(nil, p.filter, p.keys, opts...)
	runner := session.NewRunner(s, p.scorer,
		session.WithScoreTimeout(f.scoreTimeout()),
		session.WithRunnerLogger(logger),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	rec, view, err := decodeOnce(ctx, runner, points, resolved, f.scoreTimeout()+time.Second)
	cancel()
	<-done
	if err != nil {
		return err
	}
	return renderDecode(cmd.OutOrStdout(), rec, view)
}

func decodeOnce(ctx context.Context, r *session.Runner, points []model.Point, resolved <-chan model.DecodeRecord, wait time.Duration) (model.DecodeRecord, session.View, error) {
	for _, pt := range points {
		if err := r.KeyDown(ctx, pt); err != nil {
			return model.DecodeRecord{}, session.View{}, fmt.Errorf("failed to feed sample: %w", err)
		}
	}
	if err := r.Commit(ctx); err != nil {
		return model.DecodeRecord{}, session.View{}, fmt.Errorf("failed to commit gesture: %w", err)
	}
	var rec model.DecodeRecord
	select {
	case rec = <-resolved:
	case <-time.After(wait):
		return model.DecodeRecord{}, session.View{}, fmt.Errorf("gesture did not resolve within %s", wait)
	case <-ctx.Done():
		return model.DecodeRecord{}, session.View{}, ctx.Err()
	}
	view, err := r.Snapshot(ctx)
	if err != nil {
		return model.DecodeRecord{}, session.View{}, fmt.Errorf("failed to read session: %w", err)
	}
	return rec, view, nil
}

func renderDecode(w io.Writer, rec model.DecodeRecord, view session.View) error {
	word := rec.Word
	if word == "" {
		word = "(no prediction)"
	}
	lines := []string{
		fmt.Sprintf("Sequence:   %s", rec.Sequence),
		fmt.Sprintf("Anchors:    %s", rec.Anchors),
		fmt.Sprintf("Candidates: %s", strings.Join(view.Candidates, " ")),
		fmt.Sprintf("Ranked:     %s", strings.Join(view.Predictions, " ")),
		fmt.Sprintf("Result:     %s (%s)", word, rec.Source),
	}
	if view.NextWord != "" {
		lines = append(lines, fmt.Sprintf("Next word:  %s", view.NextWord))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
