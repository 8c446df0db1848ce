// Package generation drives artifact generation for projects.
//
// Each (project, artifact kind) pair moves idle/ready → pending → ready.
// The remote generator is tried first and any remote failure is absorbed by
// the local fallback generator, so a started generation always ends ready.
// At most one generation per pair runs at a time.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/fallback"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/metrics"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/remote"
)

const notConfiguredAlert = "AI service is not configured, placeholder content is shown instead"

// Generator is the primary (remote) source of artifacts.
type Generator interface {
	GenerateText(ctx context.Context, spec prompt.Spec) (string, error)
	GenerateImage(ctx context.Context, spec prompt.Spec) (models.ImageRef, error)
}

// modelNamer is implemented by generators that report the model they use.
type modelNamer interface {
	TextModel() string
	ImageModel() string
}

// Options tune a single generation. Empty fields use the project's values.
type Options struct {
	Style  models.Style
	Locale models.Locale
	// Tone and Focus rewrite the current description on text regeneration.
	Tone  models.Tone
	Focus string
}

func (o Options) rewrites() bool {
	return (o.Tone != "" && o.Tone != models.ToneDefault) || o.Focus != ""
}

// Task describes a generation that is currently running.
type Task struct {
	ProjectID  string
	Kind       models.ArtifactKind
	Options    Options
	Regenerate bool
	StartedAt  time.Time
}

// Result is delivered by Submit when a generation completes.
type Result struct {
	Artifact models.Artifact
	Err      error
}

// Config configures an Orchestrator.
type Config struct {
	// MaxRetries is the number of extra attempts after an Unreachable error.
	MaxRetries   int
	RetryInitial time.Duration
	RetryMax     time.Duration

	// Guard enforces single-flight. Defaults to a MemoryGuard.
	Guard FlightGuard
	// Host is alerted once when the remote generator is not configured.
	Host host.Host
}

// Orchestrator runs generations against a lifecycle store.
type Orchestrator struct {
	store  *lifecycle.Store
	gen    Generator
	config Config
	now    func() time.Time

	alertOnce sync.Once
	wg        sync.WaitGroup

	mu    sync.Mutex
	tasks map[string]Task
}

// New creates an Orchestrator.
func New(store *lifecycle.Store, gen Generator, config Config) *Orchestrator {
	if config.Guard == nil {
		config.Guard = NewMemoryGuard()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Orchestrator{
		store:  store,
		gen:    gen,
		config: config,
		now:    time.Now,
		tasks:  make(map[string]Task),
	}
}

// Generate produces the artifact of the given kind and waits for it.
// If ctx is cancelled first, Generate returns ctx.Err() and the generation
// still completes and commits in the background.
func (o *Orchestrator) Generate(ctx context.Context, projectID string, kind models.ArtifactKind, opts Options) (models.Artifact, error) {
	return o.wait(ctx, projectID, kind, opts, false)
}

// Regenerate replaces a ready artifact. The previous artifact stays
// readable until the new one is committed.
func (o *Orchestrator) Regenerate(ctx context.Context, projectID string, kind models.ArtifactKind, opts Options) (models.Artifact, error) {
	return o.wait(ctx, projectID, kind, opts, true)
}

// Submit starts a generation and returns once it is pending. The channel
// receives exactly one Result.
func (o *Orchestrator) Submit(ctx context.Context, projectID string, kind models.ArtifactKind, opts Options, regenerate bool) (<-chan Result, error) {
	t, release, err := o.start(ctx, projectID, kind, opts, regenerate)
	if err != nil {
		return nil, err
	}

	results := make(chan Result, 1)
	detached := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(results)
		artifact, err := o.finish(detached, t, release)
		results <- Result{Artifact: artifact, Err: err}
	}()
	return results, nil
}

// Active returns the generations currently running, oldest first.
func (o *Orchestrator) Active() []Task {
	o.mu.Lock()
	out := make([]Task, 0, len(o.tasks))
	for _, t := range o.tasks {
		out = append(out, t)
	}
	o.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Wait blocks until every submitted generation has committed.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) wait(ctx context.Context, projectID string, kind models.ArtifactKind, opts Options, regenerate bool) (models.Artifact, error) {
	results, err := o.Submit(ctx, projectID, kind, opts, regenerate)
	if err != nil {
		return models.Artifact{}, err
	}
	select {
	case r := <-results:
		return r.Artifact, r.Err
	case <-ctx.Done():
		return models.Artifact{}, ctx.Err()
	}
}

// start claims the flight slot and moves the kind to pending.
func (o *Orchestrator) start(ctx context.Context, projectID string, kind models.ArtifactKind, opts Options, regenerate bool) (Task, func(), error) {
	if _, ok := models.ParseArtifactKind(string(kind)); !ok {
		return Task{}, nil, fmt.Errorf("unknown artifact kind %q", kind)
	}

	key := FlightKey(projectID, kind)
	release, err := o.config.Guard.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, ErrAlreadyInProgress) {
			metrics.GenerationRejections.WithLabelValues(string(kind)).Inc()
		}
		return Task{}, nil, err
	}

	if regenerate {
		p, err := o.store.Get(projectID)
		if err != nil {
			release()
			return Task{}, nil, err
		}
		if p.Status(kind) != models.StatusReady {
			release()
			return Task{}, nil, fmt.Errorf("%w: %s has not been generated yet", lifecycle.ErrInvalidTransition, kind)
		}
	}

	if _, err := o.store.BeginGeneration(projectID, kind); err != nil {
		release()
		return Task{}, nil, err
	}

	t := Task{
		ProjectID:  projectID,
		Kind:       kind,
		Options:    opts,
		Regenerate: regenerate,
		StartedAt:  o.now(),
	}
	o.mu.Lock()
	o.tasks[key] = t
	o.mu.Unlock()
	metrics.GenerationsInFlight.Inc()

	return t, release, nil
}

// finish produces the artifact, commits it and frees the flight slot.
func (o *Orchestrator) finish(ctx context.Context, t Task, release func()) (artifact models.Artifact, err error) {
	key := FlightKey(t.ProjectID, t.Kind)
	defer release()
	defer func() {
		o.mu.Lock()
		delete(o.tasks, key)
		o.mu.Unlock()
		metrics.GenerationsInFlight.Dec()
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("generate %s for project %s panic: %v", t.Kind, t.ProjectID, r)
			if _, abortErr := o.store.AbortGeneration(t.ProjectID, t.Kind); abortErr != nil {
				log.Printf("abort %s for project %s error: %v", t.Kind, t.ProjectID, abortErr)
			}
			artifact = models.Artifact{}
			err = fmt.Errorf("generate %s: panic: %v", t.Kind, r)
		}
	}()

	p, err := o.store.Get(t.ProjectID)
	if err != nil {
		return models.Artifact{}, err
	}

	produced := o.produce(ctx, t, p)
	committed, err := o.store.ApplyArtifact(t.ProjectID, t.Kind, produced)
	if err != nil {
		log.Printf("commit %s for project %s error: %v", t.Kind, t.ProjectID, err)
		return models.Artifact{}, err
	}

	metrics.GenerationsTotal.WithLabelValues(string(t.Kind), string(produced.Provenance)).Inc()
	metrics.GenerationDuration.WithLabelValues(string(t.Kind)).Observe(time.Since(t.StartedAt).Seconds())
	return *committed.Artifact(t.Kind), nil
}

// produce returns the remote artifact, or the fallback one on any remote error.
func (o *Orchestrator) produce(ctx context.Context, t Task, p models.Project) models.Artifact {
	if t.Kind == models.KindRender {
		style := p.Style
		if t.Options.Style != "" {
			style = models.ParseStyle(string(t.Options.Style))
		}
		spec := prompt.BuildImagePrompt(p, style)

		var ref models.ImageRef
		err := o.retry(ctx, t, func(ctx context.Context) error {
			var err error
			ref, err = o.gen.GenerateImage(ctx, spec)
			return err
		})
		a := models.Artifact{Style: style, GeneratedAt: o.now()}
		if err != nil {
			a.FallbackReason = string(o.degraded(ctx, t, err))
			a.Value = string(fallback.Image(style))
			a.Provenance = models.ProvenanceFallback
			return a
		}
		a.Value = string(ref)
		a.Provenance = models.ProvenanceRemote
		a.Model = o.modelName(t.Kind)
		return a
	}

	locale := p.Locale
	if t.Options.Locale != "" {
		locale = models.ParseLocale(string(t.Options.Locale))
	}
	spec := prompt.BuildTextPrompt(p, locale)
	if t.Regenerate && t.Options.rewrites() && p.Text != nil {
		spec = prompt.BuildRewritePrompt(p.Text.Value, prompt.RewriteOptions{
			Tone:  models.ParseTone(string(t.Options.Tone)),
			Focus: t.Options.Focus,
		}, locale)
	}

	var text string
	err := o.retry(ctx, t, func(ctx context.Context) error {
		var err error
		text, err = o.gen.GenerateText(ctx, spec)
		return err
	})
	a := models.Artifact{Locale: locale, GeneratedAt: o.now()}
	if err != nil {
		a.FallbackReason = string(o.degraded(ctx, t, err))
		a.Value = fallback.Text(p, locale)
		a.Provenance = models.ProvenanceFallback
		return a
	}
	a.Value = text
	a.Provenance = models.ProvenanceRemote
	a.Model = o.modelName(t.Kind)
	return a
}

// retry repeats call while it fails as unreachable, up to MaxRetries times.
func (o *Orchestrator) retry(ctx context.Context, t Task, call func(ctx context.Context) error) error {
	b := newBackoff(o.config.RetryInitial, o.config.RetryMax)
	for attempt := 0; ; attempt++ {
		err := call(ctx)
		if err == nil || attempt >= o.config.MaxRetries || !errors.Is(err, remote.ErrUnreachable) {
			return err
		}
		delay := b.next()
		log.Printf("generate %s for project %s unreachable, retry %d in %v", t.Kind, t.ProjectID, attempt+1, delay)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}
	}
}

// degraded records a remote failure and returns its kind. Errors that are not
// *remote.Error count as invalid responses.
func (o *Orchestrator) degraded(ctx context.Context, t Task, err error) remote.ErrorKind {
	kind := remote.KindOf(err)
	if kind == "" {
		kind = remote.KindInvalidResponse
	}
	metrics.RemoteErrors.WithLabelValues(string(t.Kind), string(kind)).Inc()
	log.Printf("generate %s for project %s using fallback: %v", t.Kind, t.ProjectID, err)

	if kind == remote.KindNotConfigured && o.config.Host != nil {
		o.alertOnce.Do(func() {
			if err := o.config.Host.Alert(ctx, host.UserFromContext(ctx), notConfiguredAlert); err != nil {
				log.Printf("host alert error: %v", err)
			}
		})
	}
	return kind
}

func (o *Orchestrator) modelName(kind models.ArtifactKind) string {
	n, ok := o.gen.(modelNamer)
	if !ok {
		return ""
	}
	if kind == models.KindRender {
		return n.ImageModel()
	}
	return n.TextModel()
}
