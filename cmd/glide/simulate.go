package main

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/glide/internal/anchor"
	"github.com/verte-zerg/glide/internal/generator"
	"github.com/verte-zerg/glide/internal/scorer"
	"github.com/verte-zerg/glide/internal/trajectory"
)

const defaultSimulateCount = 200

var (
	simulateCount  int
	simulateJitter float64
	simulateSeed   int64
	simulateJobs   int
	simulateMisses int
)

type simResult struct {
	word     string
	recalled bool
	top1     bool
}

type simOptions struct {
	Jitter float64
	Seed   int64
	Jobs   int
}

type simSummary struct {
	Words    int
	Recalled int
	Top1     int
	Misses   []string
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Measure candidate recall over synthetic swipes of dictionary words",
		Args:  cobra.NoArgs,
		RunE:  runSimulateCmd,
	}
	cmd.Flags().IntVar(&simulateCount, "count", defaultSimulateCount, "number of dictionary words to swipe")
	cmd.Flags().Float64Var(&simulateJitter, "jitter", 8, "random sample offset in key map units")
	cmd.Flags().Int64Var(&simulateSeed, "seed", 1, "base jitter seed")
	cmd.Flags().IntVar(&simulateJobs, "jobs", runtime.NumCPU(), "parallel workers")
	cmd.Flags().IntVar(&simulateMisses, "show-misses", 10, "number of missed words to list")
	return cmd
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if simulateCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if simulateJobs <= 0 {
		return fmt.Errorf("--jobs must be > 0")
	}
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
	words := p.words
	if len(words) > simulateCount {
		words = words[:simulateCount]
	}
	summary, err := simulate(cmd.Context(), p, words, scorer.NewLocal(0), simOptions{
		Jitter: simulateJitter,
		Seed:   simulateSeed,
		Jobs:   simulateJobs,
	})
	if err != nil {
		return err
	}
	return renderSimulation(cmd.OutOrStdout(), summary, simulateMisses)
}

// simulate swipes every word and checks the candidate list and the top
// ranked word. Results keep dictionary order regardless of scheduling.
func simulate(ctx context.Context, p *pipeline, words []string, local scorer.Scorer, opts simOptions) (simSummary, error) {
	results := make([]simResult, len(words))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(opts.Jobs, 1))
	for i, word := range words {
		eg.Go(func() error {
			gen := generator.New(p.keys, generator.Options{Jitter: opts.Jitter, Seed: opts.Seed + int64(i)})
			points := gen.Trajectory(word, time.Unix(0, 0))
			sig := anchor.Extract(trajectory.Segment(points), p.anchorOpts...)
			candidates := p.filter.Candidates(points, sig.Anchors)
			res := simResult{word: word, recalled: slices.Contains(candidates, word)}
			pred, err := local.Score(egCtx, scorer.Request{
				Trajectory: points,
				Sequence:   sig.Sequence,
				Anchors:    sig.Anchors,
				Candidates: candidates,
			})
			switch {
			case err == nil:
				top, _ := pred.Top()
				res.top1 = top == word
			case egCtx.Err() != nil:
				return egCtx.Err()
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return simSummary{}, fmt.Errorf("simulation aborted: %w", err)
	}

	summary := simSummary{Words: len(results)}
	for _, r := range results {
		if r.recalled {
			summary.Recalled++
		} else {
			summary.Misses = append(summary.Misses, r.word)
		}
		if r.top1 {
			summary.Top1++
		}
	}
	return summary, nil
}

func renderSimulation(w io.Writer, s simSummary, showMisses int) error {
	if s.Words == 0 {
		_, err := fmt.Fprintln(w, "No words simulated.")
		return err
	}
	lines := []string{
		fmt.Sprintf("Words:  %d", s.Words),
		fmt.Sprintf("Recall: %d (%.2f%%)", s.Recalled, percent(s.Recalled, s.Words)),
		fmt.Sprintf("Top-1:  %d (%.2f%%)", s.Top1, percent(s.Top1, s.Words)),
	}
	if len(s.Misses) > 0 && showMisses > 0 {
		misses := s.Misses
		if len(misses) > showMisses {
			misses = misses[:showMisses]
		}
		lines = append(lines, fmt.Sprintf("Missed: %v", misses))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
