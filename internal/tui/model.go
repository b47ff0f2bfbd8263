// Package tui provides the Bubble Tea gesture typing interface.
//
// Every key press becomes a sample at the key's center. Samples, the idle
// timer and scorer answers all arrive as messages, so Update is the single
// owner of the session.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/glide/internal/candidate"
	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/pattern"
	"github.com/verte-zerg/glide/internal/scorer"
	"github.com/verte-zerg/glide/internal/session"
)

var (
	committedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	pendingWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = lipgloss.NewStyle().Underline(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	anchorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	topStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	altStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))

	idleKeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	touchedKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#3A3A3A"))
	anchorKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lipgloss.Color("#C89A3A"))
	ghostKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB3D5")).Underline(true)
)

// Config wires the model to the decoding pipeline.
type Config struct {
	Cache          *pattern.Cache
	Filter         *candidate.Filter
	Keys           keymap.KeyMap
	Rows           []string
	Scorer         scorer.Scorer
	ScoreTimeout   time.Duration
	SessionOptions []session.Option
	Logger         *slog.Logger
}

type tickMsg struct {
	seq uint64
	at  time.Time
}

type scoreMsg struct {
	gen  uint64
	pred model.Prediction
	err  error
}

// Model implements the Bubble Tea gesture typing UI.
type Model struct {
	session *session.Session
	scorer  scorer.Scorer
	keys    keymap.KeyMap
	rows    []string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	bindings keyMap
	help     help.Model

	width  int
	height int

	tickSeq   uint64
	cancelJob context.CancelFunc
	jobGen    uint64
	status    string
	statusErr bool
}

// NewModel constructs a gesture typing TUI model.
func NewModel(cfg Config) *Model {
	m := &Model{
		scorer:   cfg.Scorer,
		keys:     cfg.Keys,
		rows:     cfg.Rows,
		timeout:  cfg.ScoreTimeout,
		logger:   cfg.Logger,
		now:      time.Now,
		bindings: defaultKeyMap(),
		help:     help.New(),
	}
	if m.timeout <= 0 {
		m.timeout = session.DefaultScoreTimeout
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if len(m.rows) == 0 {
		m.rows = keymap.Rows()
	}
	opts := append([]session.Option{
		session.WithLogger(m.logger),
		session.WithObserver(m.observe),
	}, cfg.SessionOptions...)
	m.session = session.New(cfg.Cache, cfg.Filter, cfg.Keys, opts...)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case tickMsg:
		if msg.seq == m.tickSeq {
			if job := m.session.Tick(msg.at); job != nil {
				cmd = m.score(job)
			} else {
				cmd = m.scheduleTick()
			}
		}
	case scoreMsg:
		m.session.Apply(msg.gen, msg.pred, msg.err)
	}
	m.dropSupersededJob()
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.bindings.Quit):
		m.cancelInFlight()
		return tea.Quit
	case key.Matches(msg, m.bindings.Commit):
		return m.score(m.session.Commit())
	case key.Matches(msg, m.bindings.Cancel):
		m.session.Cancel()
		m.setStatus("cancelled", false)
		return nil
	case key.Matches(msg, m.bindings.Correct):
		m.correct()
		return nil
	case key.Matches(msg, m.bindings.Clear):
		m.session.Clear()
		return nil
	}
	if msg.Type != tea.KeyRunes {
		return nil
	}
	now := m.now()
	for _, r := range msg.Runes {
		m.session.KeyDown(m.point(r, now))
	}
	return m.scheduleTick()
}

func (m *Model) point(r rune, at time.Time) model.Point {
	p := model.Point{T: at, OriginalKey: r}
	if m.keys == nil {
		return p
	}
	lower := unicode.ToLower(r)
	if rect, ok := m.keys.Get(lower); ok {
		p.X, p.Y = rect.X, rect.Y
		p.Key = lower
	}
	return p
}

func (m *Model) scheduleTick() tea.Cmd {
	deadline, ok := m.session.Deadline()
	if !ok {
		return nil
	}
	m.tickSeq++
	seq := m.tickSeq
	return tea.Tick(time.Until(deadline), func(t time.Time) tea.Msg {
		return tickMsg{seq: seq, at: t}
	})
}

func (m *Model) score(job *session.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	m.cancelInFlight()
	if m.scorer == nil {
		m.session.Apply(job.Gen, model.Prediction{}, scorer.ErrNoPrediction)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	m.cancelJob, m.jobGen = cancel, job.Gen
	sc := m.scorer
	m.setStatus("resolving…", false)
	return func() tea.Msg {
		defer cancel()
		pred, err := sc.Score(ctx, job.Request)
		return scoreMsg{gen: job.Gen, pred: pred, err: err}
	}
}

func (m *Model) dropSupersededJob() {
	if m.cancelJob != nil && m.session.Generation() != m.jobGen {
		m.cancelInFlight()
	}
}

func (m *Model) cancelInFlight() {
	if m.cancelJob != nil {
		m.cancelJob()
		m.cancelJob = nil
	}
}

func (m *Model) correct() {
	view := m.session.Snapshot()
	alt, ok := nextAlternative(view)
	if !ok {
		m.setStatus("nothing to correct", false)
		return
	}
	if m.session.Correct(alt) {
		m.setStatus(fmt.Sprintf("corrected to %q", alt), false)
	}
}

// nextAlternative picks the best ranked word that differs from the pending one.
func nextAlternative(view session.View) (string, bool) {
	if view.Pending == "" {
		return "", false
	}
	for _, list := range [][]string{view.Predictions, view.Candidates} {
		for _, w := range list {
			if w != view.Pending {
				return w, true
			}
		}
	}
	return "", false
}

func (m *Model) observe(ev session.Event) {
	if ev.Kind != session.EventResolved {
		return
	}
	rec := ev.Record
	switch rec.Source {
	case model.SourceNone:
		m.setStatus(fmt.Sprintf("no prediction for %q", rec.Sequence), true)
	case model.SourceTap:
		m.setStatus("tap", false)
	default:
		m.setStatus(fmt.Sprintf("%s via %s", rec.Word, rec.Source), false)
	}
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// View implements tea.Model.
func (m *Model) View() string {
	view := m.session.Snapshot()
	text := []rune(view.Text)
	styled := buildStyledRunes(text, pendingStartIndex(text, view.Pending))

	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 20 {
		contentWidth = 20
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth)),
		"",
		m.renderDecodePanel(view),
		"",
		renderKeyboard(m.rows, keyMarks(view)),
	)
	footer := m.renderFooter(view)
	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	footerHeight := lipgloss.Height(footer)
	bodyArea := lipgloss.Place(m.width, m.height-footerHeight, lipgloss.Center, lipgloss.Center, body)
	return bodyArea + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
}

func (m *Model) renderDecodePanel(view session.View) string {
	lines := []string{
		labelStyle.Render("keys     ") + view.Keys,
		labelStyle.Render("sequence ") + renderSequence(view.Signature),
		labelStyle.Render("cands    ") + altStyle.Render(strings.Join(view.Candidates, " ")),
		labelStyle.Render("ranked   ") + renderPredictions(view.Predictions),
	}
	if len(view.Ghost) > 0 {
		lines = append(lines, labelStyle.Render("next     ")+ghostKeyStyle.Render(ghostWord(view.Ghost)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderSequence highlights the anchor keys inside the collapsed sequence.
func renderSequence(sig model.Signature) string {
	anchors := map[rune]bool{}
	for _, r := range sig.Anchors {
		anchors[r] = true
	}
	var b strings.Builder
	for _, r := range sig.Sequence {
		if anchors[r] {
			b.WriteString(anchorStyle.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func renderPredictions(words []string) string {
	parts := make([]string, 0, len(words))
	for i, w := range words {
		style := altStyle
		if i == 0 {
			style = topStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", i+1, w)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderFooter(view session.View) string {
	status := footerStyle.Render(view.Mode.String())
	if m.status != "" {
		style := footerStyle
		if m.statusErr {
			style = errorStyle
		}
		status += footerStyle.Render(" · ") + style.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Center, status, m.help.View(m.bindings))
}
