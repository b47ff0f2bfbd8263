// Package openai provides a gesture scorer backed by a hosted chat model
// through the OpenAI API (or any compatible endpoint).
//
// The model is given the collapsed key sequence, the anchor keys, the
// geometric candidates and the preceding text, and must answer with a JSON
// object naming ranked words and an optional next word. Responses that cannot
// be parsed are reported as [scorer.ErrMalformed].
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/scorer"
	"github.com/verte-zerg/glide/internal/trajectory"
)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 200
	maxContextRunes    = 400
)

const systemPrompt = `You decode gesture typing on a physical keyboard.
The user swept across keys to type ONE word. You receive the keys touched in
order (repeats collapsed), the anchor keys that were emphasised (first, last,
long dwells, sharp turns), a list of dictionary candidates that fit the key
geometry, and the text typed so far.

Rules:
- The word starts with the first key and ends with the last key.
- Prefer candidates from the list; only propose another word if none fits.
- Rank up to 5 words, most likely first, using the text typed so far as context.
- Optionally suggest the most likely NEXT word the user will type.

Respond with ONLY a JSON object (no markdown, no prose):
{"predictions": ["<word>", ...], "next_word": "<word or empty>"}`

type response struct {
	Predictions []string `json:"predictions"`
	NextWord    string   `json:"next_word"`
}

type config struct {
	baseURL     string
	timeout     time.Duration
	temperature float64
	maxRetries  int
}

// Option is a functional option for Scorer.
type Option func(*config)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithTemperature sets the sampling temperature. Default: 0.1.
func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithMaxRetries sets how often the client retries failed requests. Default: 0,
// since a late answer is useless once the user moved on.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		c.maxRetries = n
	}
}

// Scorer implements scorer.Scorer with a chat completion call.
type Scorer struct {
	client      oai.Client
	model       string
	temperature float64
}

// New constructs a Scorer.
func New(apiKey, modelName string, opts ...Option) (*Scorer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}
	cfg := &config{temperature: defaultTemperature}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}
	return &Scorer{
		client:      oai.NewClient(reqOpts...),
		model:       modelName,
		temperature: cfg.temperature,
	}, nil
}

// Score implements scorer.Scorer.
func (s *Scorer) Score(ctx context.Context, req scorer.Request) (model.Prediction, error) {
	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(buildUserMessage(req)),
		},
		MaxCompletionTokens: param.NewOpt(int64(defaultMaxTokens)),
	}
	if s.temperature != 0 {
		params.Temperature = param.NewOpt(s.temperature)
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Prediction{}, fmt.Errorf("openai: empty choices: %w", scorer.ErrMalformed)
	}
	pred, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return model.Prediction{}, err
	}
	if len(pred.Words) == 0 {
		return model.Prediction{}, scorer.ErrNoPrediction
	}
	return pred, nil
}

func buildUserMessage(req scorer.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Keys touched: %s\n", req.Sequence)
	if raw := trajectory.Keys(req.Trajectory); raw != "" && raw != req.Sequence {
		fmt.Fprintf(&b, "Raw samples: %s\n", raw)
	}
	fmt.Fprintf(&b, "Anchor keys: %s\n", string(req.Anchors))
	if len(req.Candidates) > 0 {
		fmt.Fprintf(&b, "Candidates: %s\n", strings.Join(req.Candidates, ", "))
	} else {
		b.WriteString("Candidates: (none fit the geometry, use your own judgement)\n")
	}
	fmt.Fprintf(&b, "Text so far: %q", tail(req.Context, maxContextRunes))
	return b.String()
}

func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func parseResponse(content string) (model.Prediction, error) {
	var r response
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return model.Prediction{}, fmt.Errorf("openai: parse response: %w: %v", scorer.ErrMalformed, err)
	}
	words := make([]string, 0, len(r.Predictions))
	for _, w := range r.Predictions {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || strings.ContainsAny(w, " \t\n") {
			continue
		}
		words = append(words, w)
	}
	next := strings.TrimSpace(r.NextWord)
	if strings.ContainsAny(next, " \t\n") {
		next = ""
	}
	return model.Prediction{Words: words, NextWord: strings.ToLower(next)}, nil
}

// stripMarkdown removes optional code fences some models wrap JSON in.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
