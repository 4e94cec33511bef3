package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/riel/internal/imaging"
	"github.com/Joseda-hg/riel/internal/model"
	"github.com/Joseda-hg/riel/internal/store"
	"github.com/Joseda-hg/riel/internal/view"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultFileLabel   = "📷 Attach Photo"
	CompressingLabel   = "⏳ Compressing..."
	BigFileWarning     = "⚠️ Big File Warning: Large images may fill up storage quickly!"
	DeletePrompt       = "Delete this task?"
	CueComplete        = "complete"
	CueCongratulations = "congratulations"
	CelebrationBurst   = 50

	DefaultCelebrationDelay = 500 * time.Millisecond
	DefaultFileSizeWarning  = 2 * 1024 * 1024
)

var ErrUnknownEvent = errors.New("unknown event")

// ViewPort receives everything the user should see. Implementations must not
// call back into the App from these methods.
type ViewPort interface {
	RenderList(list view.List)
	RenderStats(stats view.Stats)
	Warn(message string)
}

// FormPort is implemented by view-ports that own an entry form.
type FormPort interface {
	ResetForm()
	SetFileLabel(label string)
}

type CuePlayer interface {
	Play(cue string)
}

type Particles interface {
	Burst(count int)
}

type Normalizer interface {
	Start(data []byte) *imaging.Pending
}

type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

type Form struct {
	Title    string
	Desc     string
	Category string
	Time     string
	Location string
	Photo    []byte
}

type SubmitEvent struct {
	Form Form
}

type DeleteEvent struct {
	ID      string
	Confirm Confirmer
}

type ToggleEvent struct {
	ID string
}

type FilterEvent struct {
	Mode model.FilterMode
}

type SearchEvent struct {
	Query string
}

type FileEvent struct {
	Name string
	Size int64
}

type Options struct {
	Normalizer       Normalizer
	Cues             CuePlayer
	Particles        Particles
	CelebrationDelay time.Duration
	FileSizeWarning  int64
	// After schedules f once d has elapsed. Defaults to time.AfterFunc.
	After func(d time.Duration, f func())
	Now   func() time.Time
	NewID func() string
}

type Page struct {
	List      view.List
	Stats     view.Stats
	Filter    model.FilterMode
	Query     string
	FileLabel string
}

type ToggleResult struct {
	Task      model.Task
	Found     bool
	Celebrate bool
}

type App struct {
	store *store.Store
	opts  Options

	mu        sync.Mutex
	filter    model.FilterMode
	query     string
	fileLabel string

	portsMu   sync.RWMutex
	ports     []ViewPort
	cues      CuePlayer
	particles Particles
}

func New(s *store.Store, opts Options) *App {
	if opts.Normalizer == nil {
		opts.Normalizer = imaging.New(imaging.DefaultMaxWidth, imaging.DefaultQuality)
	}
	if opts.CelebrationDelay <= 0 {
		opts.CelebrationDelay = DefaultCelebrationDelay
	}
	if opts.FileSizeWarning <= 0 {
		opts.FileSizeWarning = DefaultFileSizeWarning
	}
	if opts.After == nil {
		opts.After = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	a := &App{
		store:     s,
		opts:      opts,
		filter:    model.FilterAll,
		fileLabel: DefaultFileLabel,
		cues:      opts.Cues,
		particles: opts.Particles,
	}
	s.SetWarner(store.WarnerFunc(a.warn))
	return a
}

// Attach registers a view-port and renders the current state into it.
func (a *App) Attach(port ViewPort) {
	a.portsMu.Lock()
	a.ports = append(a.ports, port)
	a.portsMu.Unlock()

	a.mu.Lock()
	list, stats := a.snapshot()
	label := a.fileLabel
	a.mu.Unlock()

	port.RenderList(list)
	port.RenderStats(stats)
	if form, ok := port.(FormPort); ok {
		form.SetFileLabel(label)
	}
}

// SetEffects replaces the sound cue player and the particle effect. Either
// may be nil.
func (a *App) SetEffects(cues CuePlayer, particles Particles) {
	a.portsMu.Lock()
	defer a.portsMu.Unlock()
	a.cues = cues
	a.particles = particles
}

func (a *App) Store() *store.Store {
	return a.store
}

func (a *App) Page() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	list, stats := a.snapshot()
	return Page{
		List:      list,
		Stats:     stats,
		Filter:    a.filter,
		Query:     a.query,
		FileLabel: a.fileLabel,
	}
}

func (a *App) Dispatch(ctx context.Context, event any) error {
	switch e := event.(type) {
	case SubmitEvent:
		_, err := a.Submit(ctx, e.Form)
		return err
	case DeleteEvent:
		a.Delete(ctx, e.ID, e.Confirm)
		return nil
	case ToggleEvent:
		a.Toggle(ctx, e.ID)
		return nil
	case FilterEvent:
		a.SetFilter(e.Mode)
		return nil
	case SearchEvent:
		a.SetQuery(e.Query)
		return nil
	case FileEvent:
		a.SelectFile(e.Name, e.Size)
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
}

// Submit creates a task from form. An empty title is ignored and reports
// false.
func (a *App) Submit(ctx context.Context, form Form) (bool, error) {
	title := strings.TrimSpace(form.Title)
	if title == "" {
		return false, nil
	}

	var photo string
	if len(form.Photo) > 0 {
		a.setFileLabel(CompressingLabel)
		dataURL, err := a.opts.Normalizer.Start(form.Photo).Wait()
		if err != nil {
			zap.L().Error("compress photo", zap.Int("bytes", len(form.Photo)), zap.Error(err))
		} else {
			photo = dataURL
		}
	}

	task := model.Task{
		ID:        a.opts.NewID(),
		Title:     title,
		Desc:      strings.TrimSpace(form.Desc),
		Category:  strings.TrimSpace(form.Category),
		Time:      strings.TrimSpace(form.Time),
		Location:  strings.TrimSpace(form.Location),
		Photo:     photo,
		CreatedAt: a.opts.Now(),
	}

	a.mu.Lock()
	err := a.store.Add(ctx, task)
	if err != nil {
		a.mu.Unlock()
		return false, fmt.Errorf("add task: %w", err)
	}
	a.fileLabel = DefaultFileLabel
	list, stats := a.snapshot()
	a.mu.Unlock()

	zap.L().Info("task created", zap.String("id", task.ID), zap.Bool("photo", photo != ""))
	a.render(list, stats)
	a.eachForm(func(form FormPort) {
		form.ResetForm()
		form.SetFileLabel(DefaultFileLabel)
	})
	return true, nil
}

// Delete removes id once confirm agrees. It reports whether a task was
// removed.
func (a *App) Delete(ctx context.Context, id string, confirm Confirmer) bool {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false
	}

	a.mu.Lock()
	removed := a.store.Remove(ctx, id)
	list, stats := a.snapshot()
	a.mu.Unlock()

	if removed {
		zap.L().Info("task deleted", zap.String("id", id))
		a.render(list, stats)
	}
	return removed
}

func (a *App) Toggle(ctx context.Context, id string) ToggleResult {
	a.mu.Lock()
	task, found := a.store.Toggle(ctx, id)
	if !found {
		a.mu.Unlock()
		return ToggleResult{}
	}
	celebrate := task.Completed && view.AllCompleted(a.store.Tasks())
	list, stats := a.snapshot()
	a.mu.Unlock()

	a.render(list, stats)
	if task.Completed {
		a.play(CueComplete)
	}
	if celebrate {
		a.opts.After(a.opts.CelebrationDelay, a.celebrate)
	}
	return ToggleResult{Task: task, Found: true, Celebrate: celebrate}
}

func (a *App) SetFilter(mode model.FilterMode) {
	a.mu.Lock()
	a.filter = model.ParseFilterMode(string(mode))
	list, stats := a.snapshot()
	a.mu.Unlock()
	a.render(list, stats)
}

func (a *App) SetQuery(query string) {
	a.mu.Lock()
	a.query = view.NormalizeQuery(query)
	list, stats := a.snapshot()
	a.mu.Unlock()
	a.render(list, stats)
}

func (a *App) SelectFile(name string, size int64) {
	label := DefaultFileLabel
	if name != "" {
		label = "📷 " + name
	}
	a.setFileLabel(label)

	if name != "" && size > a.opts.FileSizeWarning {
		a.warn(BigFileWarning)
	}
}

func (a *App) celebrate() {
	a.play(CueCongratulations)
	a.portsMu.RLock()
	particles := a.particles
	a.portsMu.RUnlock()
	if particles != nil {
		particles.Burst(CelebrationBurst)
	}
}

func (a *App) play(cue string) {
	a.portsMu.RLock()
	cues := a.cues
	a.portsMu.RUnlock()
	if cues != nil {
		cues.Play(cue)
	}
}

func (a *App) setFileLabel(label string) {
	a.mu.Lock()
	a.fileLabel = label
	a.mu.Unlock()
	a.eachForm(func(form FormPort) {
		form.SetFileLabel(label)
	})
}

// snapshot must be called with a.mu held.
func (a *App) snapshot() (view.List, view.Stats) {
	tasks := a.store.Tasks()
	list := view.Build(view.Project(tasks, a.filter, a.query))
	list.Filter = a.filter
	list.Query = a.query
	return list, view.ComputeStats(tasks)
}

func (a *App) render(list view.List, stats view.Stats) {
	for _, port := range a.attached() {
		port.RenderList(list)
		port.RenderStats(stats)
	}
}

func (a *App) warn(message string) {
	for _, port := range a.attached() {
		port.Warn(message)
	}
}

func (a *App) eachForm(f func(FormPort)) {
	for _, port := range a.attached() {
		if form, ok := port.(FormPort); ok {
			f(form)
		}
	}
}

func (a *App) attached() []ViewPort {
	a.portsMu.RLock()
	defer a.portsMu.RUnlock()
	return append([]ViewPort{}, a.ports...)
}
