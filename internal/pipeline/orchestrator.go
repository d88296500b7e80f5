// Package pipeline derives the displayed image from a base image by
// chaining remote transforms, debouncing continuous settings and
// discarding results that no longer match the committed settings.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/cutout/internal/artifact"
	"github.com/example/cutout/internal/transform"
)

// DefaultDebounce is how long continuous commits are coalesced.
const DefaultDebounce = 300 * time.Millisecond

// ErrNoImage is returned by operations that need a loaded base image.
var ErrNoImage = errors.New("no image loaded")

// Timer is the part of *time.Timer the orchestrator needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDebounce sets the coalescing window for continuous commits.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithAfterFunc replaces the timer used for debouncing.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *Orchestrator) { o.afterFunc = fn }
}

// WithSettings sets the initial committed settings.
func WithSettings(s Settings) Option {
	return func(o *Orchestrator) { o.committed = s }
}

// WithStore shares an artifact store.
func WithStore(s *artifact.Store) Option {
	return func(o *Orchestrator) { o.store = s }
}

// Orchestrator owns the processing settings and the artifact store. All
// exported methods are safe for concurrent use.
type Orchestrator struct {
	t         transform.Transformer
	store     *artifact.Store
	history   *artifact.History[Settings]
	debounce  time.Duration
	afterFunc AfterFunc

	mu sync.Mutex
	// committed is what the user accepted, draft what the controls show,
	// applied what the displayed image was derived with and requested the
	// target of the newest run.
	committed Settings
	draft     Settings
	applied   Settings
	requested Settings
	states    [numStages]StageState
	aspect    float64
	timer     Timer
	timerSeq  uint64
	gen       uint64
	cancel    context.CancelFunc
	lastErr   error
	closed    bool

	listenersMu  sync.Mutex
	listeners    map[int]func(Event)
	nextListener int

	runs sync.WaitGroup
}

// New returns an orchestrator applying stages with t.
func New(t transform.Transformer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		t:         t,
		debounce:  DefaultDebounce,
		afterFunc: realAfterFunc,
		committed: DefaultSettings(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = artifact.NewStore(0)
	}
	o.history = artifact.NewHistory[Settings](0)
	o.draft = o.committed
	o.applied = o.committed.withoutStages()
	o.requested = o.applied
	return o
}

// Load starts a new session on img. In-flight work is abandoned, the
// stage cache and result history are dropped, the target size becomes the
// image size, and enabled stages are applied to the new base.
func (o *Orchestrator) Load(img *artifact.Image) error {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return ErrNoImage
	}
	o.mu.Lock()
	o.abortLocked()
	o.store.Load(img)
	o.history.Clear()
	o.lastErr = nil
	o.aspect = float64(img.Width) / float64(img.Height)
	o.committed.TargetWidth = img.Width
	o.committed.TargetHeight = img.Height
	o.draft = o.committed
	o.applied = o.committed.withoutStages()
	o.requested = o.applied
	evs := []Event{
		{Type: EventImageLoaded, Image: img, Settings: o.committed},
		{Type: EventDisplayChanged, Image: img, Settings: o.applied},
	}
	evs = append(evs, o.settleLocked()...)
	evs = append(evs, o.processLocked()...)
	o.mu.Unlock()
	o.emit(evs)
	return nil
}

// SetRemoveBackground toggles the background removal stage.
func (o *Orchestrator) SetRemoveBackground(on bool) {
	o.toggle(func(s *Settings) { s.RemoveBackground = on })
}

// SetPadding toggles the padding stage.
func (o *Orchestrator) SetPadding(on bool) {
	o.toggle(func(s *Settings) { s.PaddingEnabled = on })
}

// SetResizeActive toggles the resize stage.
func (o *Orchestrator) SetResizeActive(on bool) {
	o.toggle(func(s *Settings) { s.ResizeActive = on })
}

// SetMaintainAspectRatio locks or unlocks the target size to the original
// image ratio. Locking recomputes the height from the width.
func (o *Orchestrator) SetMaintainAspectRatio(on bool) {
	o.toggle(func(s *Settings) {
		s.MaintainAspectRatio = on
		if !on || o.aspect <= 0 || s.TargetWidth <= 0 {
			return
		}
		if err := (Change{Field: FieldTargetWidth, Value: s.TargetWidth}).apply(s, o.aspect); err != nil {
			logrus.WithError(err).WithField("width", s.TargetWidth).Warn("Kept target size when locking aspect ratio")
		}
	})
}

// SetModel selects the removal model.
func (o *Orchestrator) SetModel(id string) error {
	if _, err := transform.LookupModel(id); err != nil {
		return err
	}
	o.toggle(func(s *Settings) { s.Model = id })
	return nil
}

// SetSize sets both target dimensions at once, as a size preset does.
func (o *Orchestrator) SetSize(w, h int) error {
	if err := transform.ValidateDimension(w); err != nil {
		return err
	}
	if err := transform.ValidateDimension(h); err != nil {
		return err
	}
	o.toggle(func(s *Settings) {
		s.TargetWidth = w
		s.TargetHeight = h
	})
	return nil
}

// SetTargetWidth commits a new width, keeping the original ratio when
// locked.
func (o *Orchestrator) SetTargetWidth(w int) error {
	return o.Commit(Change{Field: FieldTargetWidth, Value: w})
}

// SetTargetHeight commits a new height, keeping the original ratio when
// locked.
func (o *Orchestrator) SetTargetHeight(h int) error {
	return o.Commit(Change{Field: FieldTargetHeight, Value: h})
}

// Drag records a transient value. It never triggers processing.
func (o *Orchestrator) Drag(c Change) error {
	o.mu.Lock()
	next := o.draft
	if err := c.apply(&next, o.aspect); err != nil {
		o.mu.Unlock()
		return err
	}
	o.draft = next
	evs := []Event{{Type: EventSettingsChanged, Settings: next}}
	o.mu.Unlock()
	o.emit(evs)
	return nil
}

// Commit accepts a value. Commits arriving within the debounce window are
// coalesced into one processing run using the last values.
func (o *Orchestrator) Commit(c Change) error {
	o.mu.Lock()
	next := o.committed
	if err := c.apply(&next, o.aspect); err != nil {
		o.mu.Unlock()
		return err
	}
	o.committed = next
	c.copyField(&o.draft, next)
	evs := []Event{{Type: EventCommitted, Settings: next}}
	evs = append(evs, o.settleLocked()...)
	o.scheduleLocked()
	o.mu.Unlock()
	o.emit(evs)
	return nil
}

// Restore re-applies the settings that produced a history entry.
func (o *Orchestrator) Restore(e artifact.Entry[Settings]) {
	o.toggle(func(s *Settings) { *s = e.Settings })
}

// Apply replaces every setting at once and processes immediately, as a
// batch of toggles folded into one run. Invalid settings change nothing.
// A zero target dimension keeps the current one.
func (o *Orchestrator) Apply(next Settings) error {
	if _, err := transform.LookupModel(next.Model); err != nil {
		return err
	}
	if next.ResizeActive {
		if err := transform.ValidateDimension(next.TargetWidth); err != nil {
			return err
		}
		if err := transform.ValidateDimension(next.TargetHeight); err != nil {
			return err
		}
	}
	next.EdgeThreshold = max(0, min(MaxEdgeThreshold, next.EdgeThreshold))
	next.ErodeSize = max(0, min(MaxErodeSize, next.ErodeSize))
	next.PaddingSize = transform.ClampPadding(next.PaddingSize)
	o.toggle(func(s *Settings) {
		w, h := s.TargetWidth, s.TargetHeight
		*s = next
		if s.TargetWidth == 0 {
			s.TargetWidth = w
		}
		if s.TargetHeight == 0 {
			s.TargetHeight = h
		}
	})
	return nil
}

// Flush processes a pending debounced commit now.
func (o *Orchestrator) Flush() {
	o.mu.Lock()
	evs := o.processLocked()
	o.mu.Unlock()
	o.emit(evs)
}

// Wait blocks until no processing run is in flight. A pending debounced
// commit is not waited for; call Flush first.
func (o *Orchestrator) Wait() {
	o.runs.Wait()
}

// Close abandons in-flight work and stops further processing.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.abortLocked()
	o.mu.Unlock()
}

// Displayed returns the canonical artifact.
func (o *Orchestrator) Displayed() *artifact.Image {
	return o.store.Displayed()
}

// Base returns the loaded original.
func (o *Orchestrator) Base() *artifact.Image {
	return o.store.Base()
}

// Settings returns the committed settings.
func (o *Orchestrator) Settings() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.committed
}

// Draft returns the settings the controls currently show.
func (o *Orchestrator) Draft() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.draft
}

// Applied returns the settings the displayed image was derived with.
func (o *Orchestrator) Applied() Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applied
}

// BackgroundRemoved reports whether the displayed image has its
// background removed.
func (o *Orchestrator) BackgroundRemoved() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applied.RemoveBackground
}

// StageState reports the lifecycle state of st.
func (o *Orchestrator) StageState(st Stage) StageState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st < 0 || st >= numStages {
		return Disabled
	}
	return o.states[st]
}

// AspectRatio is the original image's width divided by its height.
func (o *Orchestrator) AspectRatio() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.aspect
}

// LastError returns the most recent stage failure, cleared by the next
// successful run.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// History returns recent results, newest first.
func (o *Orchestrator) History() []artifact.Entry[Settings] {
	return o.history.Entries()
}

func (o *Orchestrator) toggle(fn func(*Settings)) {
	o.mu.Lock()
	fn(&o.committed)
	fn(&o.draft)
	evs := []Event{{Type: EventCommitted, Settings: o.committed}}
	evs = append(evs, o.settleLocked()...)
	evs = append(evs, o.processLocked()...)
	o.mu.Unlock()
	o.emit(evs)
}

// settleLocked recomputes every stage's state and reports transitions.
func (o *Orchestrator) settleLocked() []Event {
	var evs []Event
	for _, st := range Stages {
		next := Disabled
		if o.committed.enabled(st) {
			next = Pending
			if prefixEqual(st, o.committed, o.applied) {
				next = Applied
			}
		}
		if o.states[st] != next {
			o.states[st] = next
			evs = append(evs, Event{Type: EventStageChanged, Stage: st, State: next, Settings: o.committed})
		}
	}
	return evs
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.timerSeq++
}

func (o *Orchestrator) abortLocked() {
	o.stopTimerLocked()
	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) scheduleLocked() {
	if o.closed || o.store.Base() == nil {
		return
	}
	if equivalent(o.committed, o.requested) {
		o.stopTimerLocked()
		return
	}
	o.stopTimerLocked()
	seq := o.timerSeq
	o.timer = o.afterFunc(o.debounce, func() { o.fire(seq) })
}

func (o *Orchestrator) fire(seq uint64) {
	o.mu.Lock()
	if seq != o.timerSeq {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	evs := o.processLocked()
	o.mu.Unlock()
	o.emit(evs)
}

// processLocked starts a run towards the committed settings unless one is
// already heading there.
func (o *Orchestrator) processLocked() []Event {
	if o.closed || o.store.Base() == nil {
		return nil
	}
	o.stopTimerLocked()
	if equivalent(o.committed, o.requested) {
		return nil
	}
	o.gen++
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	target := o.committed
	o.requested = target
	gen := o.gen
	o.runs.Add(1)
	go o.run(ctx, gen, o.store.Base(), target)
	return []Event{{Type: EventProcessing, Generation: gen, Settings: target}}
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, base *artifact.Image, target Settings) {
	defer o.runs.Done()
	log := logrus.WithField("generation", gen)
	cur := base
	for _, st := range Stages {
		if !target.enabled(st) {
			continue
		}
		key := artifact.Key{Input: cur.ID, Stage: st.String(), Params: target.params(st)}
		entry := log.WithFields(logrus.Fields{"stage": st.String(), "input": cur.ID})
		if out, ok := o.store.Cached(key); ok {
			entry.Debug("Stage output served from cache")
			cur = out
			continue
		}
		if ctx.Err() != nil {
			entry.Debug("Run superseded")
			return
		}
		started := time.Now()
		out, err := o.apply(ctx, st, cur, target)
		if err != nil {
			entry.WithError(err).Warn("Stage failed")
			o.fail(ctx, gen, st, err)
			return
		}
		entry.WithField("elapsed", time.Since(started)).Debug("Stage applied")
		cur = o.store.Put(key, out)
		if ctx.Err() != nil {
			entry.Debug("Run superseded")
			return
		}
	}
	o.finish(gen, target, cur)
}

func (o *Orchestrator) apply(ctx context.Context, st Stage, in *artifact.Image, s Settings) (*artifact.Image, error) {
	switch st {
	case StageRemoveBackground:
		return o.t.RemoveBackground(ctx, in, s.removal())
	case StagePad:
		return o.t.Fit(ctx, in, s.fit())
	case StageResize:
		return o.t.Resize(ctx, in, s.resize())
	}
	return nil, transform.ErrUnsupported
}

func (o *Orchestrator) finish(gen uint64, target Settings, img *artifact.Image) {
	o.mu.Lock()
	if gen != o.gen || !equivalent(target, o.committed) {
		o.mu.Unlock()
		logrus.WithField("generation", gen).Debug("Discarded stale result")
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.store.SetDisplayed(img)
	o.applied = target
	o.lastErr = nil
	if target.anyEnabled() {
		o.history.Add(artifact.Entry[Settings]{Image: img, Settings: target, Time: time.Now()})
	}
	evs := []Event{{Type: EventDisplayChanged, Generation: gen, Image: img, Settings: target}}
	evs = append(evs, o.settleLocked()...)
	o.mu.Unlock()
	o.emit(evs)
}

// fail rolls the failed stage back to the settings of the displayed image.
// Other committed changes are kept and re-derived.
func (o *Orchestrator) fail(ctx context.Context, gen uint64, st Stage, err error) {
	o.mu.Lock()
	if gen != o.gen || ctx.Err() != nil {
		o.mu.Unlock()
		return
	}
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	serr := &StageError{Stage: st, Err: err}
	o.lastErr = serr
	o.committed = revertStage(o.committed, o.applied, st)
	o.draft = revertStage(o.draft, o.applied, st)
	o.requested = o.applied
	evs := []Event{
		{Type: EventError, Generation: gen, Stage: st, Err: serr, Settings: o.committed},
		{Type: EventCommitted, Settings: o.committed},
	}
	evs = append(evs, o.settleLocked()...)
	if o.timer == nil {
		evs = append(evs, o.processLocked()...)
	}
	o.mu.Unlock()
	o.emit(evs)
}
