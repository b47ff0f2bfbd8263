// Package session implements the gesture decoding state machine.
//
// A Session is a synchronous transition function owned by a single event
// loop: key samples, the idle deadline and the explicit separator drive it,
// and the only suspending step, the scorer call, is handed back to the caller
// as a Job whose result returns through Apply. Results are tagged with a
// generation number so that answers for superseded gestures are dropped.
package session

import (
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/glide/internal/anchor"
	"github.com/verte-zerg/glide/internal/candidate"
	"github.com/verte-zerg/glide/internal/generator"
	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/pattern"
	"github.com/verte-zerg/glide/internal/scorer"
	"github.com/verte-zerg/glide/internal/trajectory"
)

const (
	// DefaultIdle is how long the input must stay quiet before a gesture resolves.
	DefaultIdle = 400 * time.Millisecond
	// DefaultTapMaxPoints is the largest gesture committed as literal text.
	DefaultTapMaxPoints = 3
	// Separator is appended when the commit key is pressed with no gesture.
	Separator = " "
)

// Job is a scorer call requested by the session.
type Job struct {
	Gen       uint64
	Request   scorer.Request
	Signature model.Signature
}

// EventKind identifies a session notification.
type EventKind int

const (
	// EventCommit fires when text is appended or the last word is replaced.
	EventCommit EventKind = iota
	// EventClear fires when the session is reset.
	EventClear
	// EventPredictions fires when a scorer answer updates the ranked words.
	EventPredictions
	// EventGhost fires when a next-word ghost path is synthesized.
	EventGhost
	// EventResolved fires once per finished gesture with its decode record.
	EventResolved
)

// Event is delivered to the observer on the session's goroutine.
type Event struct {
	Kind        EventKind
	Word        string
	Text        string
	Predictions []string
	Ghost       []model.Point
	Record      model.DecodeRecord
}

// Recorder receives one record per resolved gesture. Implementations must not block.
type Recorder interface {
	Record(rec model.DecodeRecord)
}

// View is a read-only snapshot of the session for display.
type View struct {
	Mode        model.Mode
	Text        string
	Keys        string
	Pending     string
	Signature   model.Signature
	Candidates  []string
	Predictions []string
	NextWord    string
	Ghost       []model.Point
	Generation  uint64
}

// Option configures a Session.
type Option func(*Session)

// WithIdle sets the quiet period that ends a gesture.
func WithIdle(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.idle = d
		}
	}
}

// WithTapMaxPoints sets the largest point count treated as a tap.
func WithTapMaxPoints(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.tapMax = n
		}
	}
}

// WithAnchorOptions forwards tuning to the anchor extractor.
func WithAnchorOptions(opts ...anchor.Option) Option {
	return func(s *Session) {
		s.anchorOpts = append(s.anchorOpts, opts...)
	}
}

// WithObserver registers a callback for session events.
func WithObserver(fn func(Event)) Option {
	return func(s *Session) {
		s.observer = fn
	}
}

// WithRecorder registers a decode log sink.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the wall clock used for records and ghost paths.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session tracks one input surface. It is not safe for concurrent use.
type Session struct {
	cache      *pattern.Cache
	filter     *candidate.Filter
	keys       keymap.KeyMap
	idle       time.Duration
	tapMax     int
	anchorOpts []anchor.Option
	observer   func(Event)
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time

	mode     model.Mode
	points   []model.Point
	gen      uint64
	job      *Job
	text     string
	lastWord int

	pendingWord string
	pendingSig  model.Signature

	lastSig        model.Signature
	lastCandidates []string
	lastPred       model.Prediction
	ghost          []model.Point
}

// New returns an idle session. A nil cache is replaced by a memory-only one
// and a nil filter yields no candidates.
func New(cache *pattern.Cache, filter *candidate.Filter, keys keymap.KeyMap, opts ...Option) *Session {
	if cache == nil {
		cache = pattern.New(nil)
	}
	s := &Session{
		cache:    cache,
		filter:   filter,
		keys:     keys,
		idle:     DefaultIdle,
		tapMax:   DefaultTapMaxPoints,
		logger:   slog.Default(),
		now:      time.Now,
		lastWord: -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Mode returns the current state.
func (s *Session) Mode() model.Mode {
	return s.mode
}

// Generation returns the current gesture generation.
func (s *Session) Generation() uint64 {
	return s.gen
}

// Text returns the committed text.
func (s *Session) Text() string {
	return s.text
}

// KeyDown records a sample. Unmapped samples are ignored. A sample arriving
// while idle starts a new gesture and implicitly confirms the pending word; a
// sample arriving while resolving supersedes the in-flight scorer call.
func (s *Session) KeyDown(p model.Point) {
	if !p.HasKey() {
		return
	}
	p.Key = unicode.ToLower(p.Key)
	if p.OriginalKey == model.NoKey {
		p.OriginalKey = p.Key
	}
	switch s.mode {
	case model.ModeIdle:
		s.learnPending()
		s.startCapture()
	case model.ModeResolving:
		s.logger.Debug("gesture superseded", "gen", s.gen)
		s.supersede()
		s.startCapture()
	}
	s.points = append(s.points, p)
}

func (s *Session) startCapture() {
	s.mode = model.ModeCapturing
	s.points = s.points[:0]
	s.ghost = nil
}

// Deadline returns when the current gesture resolves if no sample arrives.
func (s *Session) Deadline() (time.Time, bool) {
	if s.mode != model.ModeCapturing || len(s.points) == 0 {
		return time.Time{}, false
	}
	return s.points[len(s.points)-1].T.Add(s.idle), true
}

// Tick resolves the gesture once now reaches the idle deadline.
func (s *Session) Tick(now time.Time) *Job {
	deadline, ok := s.Deadline()
	if !ok || now.Before(deadline) {
		return nil
	}
	return s.resolve()
}

// Commit handles the explicit separator key. The pending word is confirmed
// first; then a gesture in progress resolves immediately, or the separator is
// appended when idle. It does nothing while a scorer call is in flight.
func (s *Session) Commit() *Job {
	switch s.mode {
	case model.ModeCapturing:
		s.learnPending()
		return s.resolve()
	case model.ModeIdle:
		s.learnPending()
		s.append(Separator)
		s.lastWord = -1
		s.emit(Event{Kind: EventCommit, Word: Separator, Text: s.text})
	}
	return nil
}

// Cancel discards the gesture and the pending word without learning.
func (s *Session) Cancel() {
	if s.mode == model.ModeResolving {
		s.supersede()
	}
	s.mode = model.ModeIdle
	s.points = s.points[:0]
	s.clearPending()
}

// Apply delivers a scorer result. Results for another generation, or arriving
// when no call is in flight, are dropped and Apply reports false.
func (s *Session) Apply(gen uint64, pred model.Prediction, err error) bool {
	if s.mode != model.ModeResolving || s.job == nil || gen != s.gen {
		s.logger.Debug("dropping stale prediction", "gen", gen, "current", s.gen)
		return false
	}
	job := s.job
	s.job = nil
	s.mode = model.ModeIdle
	s.points = s.points[:0]

	rec := model.DecodeRecord{
		At:         s.now(),
		Sequence:   job.Signature.Sequence,
		Anchors:    job.Signature.AnchorString(),
		Source:     model.SourceNone,
		Candidates: len(job.Request.Candidates),
	}

	word, ok := pred.Top()
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("scorer failed", "sequence", job.Signature.Sequence, "err", err)
		}
		s.lastPred = model.Prediction{}
		s.clearPending()
		s.finish(rec)
		return true
	}
	word = strings.ToLower(word)

	s.lastPred = pred
	s.emit(Event{Kind: EventPredictions, Predictions: pred.Words})
	s.commitWord(word)
	s.pendingWord = word
	s.pendingSig = job.Signature

	if next := strings.TrimSpace(pred.NextWord); next != "" {
		s.ghost = generator.Ghost(next, s.keys, s.now())
		if len(s.ghost) > 0 {
			s.emit(Event{Kind: EventGhost, Word: next, Ghost: s.ghost})
		}
	}

	rec.Word = word
	rec.Source = model.SourceScorer
	s.finish(rec)
	return true
}

// Correct replaces the pending word with word and teaches the cache the
// correction. It reports false when no pending word exists.
func (s *Session) Correct(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || s.pendingWord == "" || s.pendingSig.Sequence == "" {
		return false
	}
	s.cache.Learn(s.pendingSig.Sequence, word)
	if s.lastWord >= 0 && s.lastWord <= len(s.text) {
		s.text = s.text[:s.lastWord] + word
	}
	s.clearPending()
	s.emit(Event{Kind: EventCommit, Word: word, Text: s.text})
	return true
}

// Clear resets the session, including the committed text.
func (s *Session) Clear() {
	if s.mode == model.ModeResolving {
		s.supersede()
	}
	s.mode = model.ModeIdle
	s.points = s.points[:0]
	s.text = ""
	s.lastWord = -1
	s.clearPending()
	s.lastSig = model.Signature{}
	s.lastCandidates = nil
	s.lastPred = model.Prediction{}
	s.ghost = nil
	s.emit(Event{Kind: EventClear})
}

// Snapshot returns the state needed to render the session.
func (s *Session) Snapshot() View {
	return View{
		Mode:        s.mode,
		Text:        s.text,
		Keys:        trajectory.Keys(s.points),
		Pending:     s.pendingWord,
		Signature:   s.lastSig,
		Candidates:  append([]string(nil), s.lastCandidates...),
		Predictions: append([]string(nil), s.lastPred.Words...),
		NextWord:    s.lastPred.NextWord,
		Ghost:       append([]model.Point(nil), s.ghost...),
		Generation:  s.gen,
	}
}

func (s *Session) resolve() *Job {
	points := append([]model.Point(nil), s.points...)
	s.points = s.points[:0]
	s.mode = model.ModeIdle
	if len(points) == 0 {
		return nil
	}

	if len(points) <= s.tapMax {
		literal := trajectory.Literal(points)
		s.append(literal)
		s.lastWord = -1
		s.emit(Event{Kind: EventCommit, Word: literal, Text: s.text})
		s.finish(model.DecodeRecord{
			At:       s.now(),
			Sequence: trajectory.Keys(points),
			Word:     literal,
			Source:   model.SourceTap,
		})
		return nil
	}

	sig := anchor.Extract(trajectory.Segment(points), s.anchorOpts...)
	if sig.IsZero() {
		return nil
	}
	s.lastSig = sig
	s.lastCandidates = nil
	s.lastPred = model.Prediction{}

	if word, ok := s.cache.Lookup(sig.Sequence); ok {
		s.commitWord(word)
		s.pendingWord = word
		s.pendingSig = sig
		s.finish(model.DecodeRecord{
			At:       s.now(),
			Sequence: sig.Sequence,
			Anchors:  sig.AnchorString(),
			Word:     word,
			Source:   model.SourceCache,
		})
		return nil
	}

	var candidates []string
	if s.filter != nil {
		candidates = s.filter.Candidates(points, sig.Anchors)
	}
	s.lastCandidates = candidates

	s.gen++
	s.mode = model.ModeResolving
	s.job = &Job{
		Gen:       s.gen,
		Signature: sig,
		Request: scorer.Request{
			Trajectory: points,
			Sequence:   sig.Sequence,
			Anchors:    append([]rune(nil), sig.Anchors...),
			Candidates: candidates,
			Context:    s.text,
		},
	}
	return s.job
}

func (s *Session) supersede() {
	s.gen++
	s.job = nil
}

func (s *Session) learnPending() {
	if s.pendingWord != "" && s.pendingSig.Sequence != "" {
		s.cache.Learn(s.pendingSig.Sequence, s.pendingWord)
	}
	s.clearPending()
}

func (s *Session) clearPending() {
	s.pendingWord = ""
	s.pendingSig = model.Signature{}
}

func (s *Session) commitWord(word string) {
	if s.text != "" && !endsWithSpace(s.text) {
		s.append(Separator)
	}
	s.lastWord = len(s.text)
	s.append(word)
	s.emit(Event{Kind: EventCommit, Word: word, Text: s.text})
}

func (s *Session) append(text string) {
	s.text += text
}

func (s *Session) finish(rec model.DecodeRecord) {
	if s.recorder != nil {
		s.recorder.Record(rec)
	}
	s.emit(Event{Kind: EventResolved, Word: rec.Word, Text: s.text, Record: rec})
}

func (s *Session) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}

func endsWithSpace(text string) bool {
	r, size := utf8.DecodeLastRuneInString(text)
	return size > 0 && unicode.IsSpace(r)
}
