package generation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/fallback"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/remote"
)

// stubGenerator counts calls and can block, fail or panic on demand.
type stubGenerator struct {
	mu     sync.Mutex
	calls  int
	specs  []prompt.Spec
	errs   []error // consumed one per call before err applies
	err    error
	panics bool

	started chan struct{}
	gate    chan struct{}

	text  string
	image models.ImageRef
}

func newStub() *stubGenerator {
	return &stubGenerator{text: "remote text", image: "https://cdn.example/render.png"}
}

func (s *stubGenerator) call(spec prompt.Spec) error {
	s.mu.Lock()
	s.calls++
	s.specs = append(s.specs, spec)
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	} else {
		err = s.err
	}
	started, gate, panics := s.started, s.gate, s.panics
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if panics {
		panic("generator exploded")
	}
	return err
}

func (s *stubGenerator) GenerateText(ctx context.Context, spec prompt.Spec) (string, error) {
	if err := s.call(spec); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, nil
}

func (s *stubGenerator) GenerateImage(ctx context.Context, spec prompt.Spec) (models.ImageRef, error) {
	if err := s.call(spec); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, nil
}

func (s *stubGenerator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubGenerator) lastSpec() prompt.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specs[len(s.specs)-1]
}

// namedStub also reports model names.
type namedStub struct{ *stubGenerator }

func (namedStub) TextModel() string  { return "text-model" }
func (namedStub) ImageModel() string { return "image-model" }

func sampleAttributes() models.Attributes {
	return models.Attributes{
		PropertyType: models.PropertyVilla,
		Bedrooms:     "4",
		Size:         "5200",
		SizeUnit:     models.SizeSqft,
		Location:     "Palm Jumeirah",
		Price:        "12000000",
		Currency:     "AED",
	}
}

func setup(t *testing.T, gen Generator, config Config) (*lifecycle.Store, *Orchestrator, models.Project) {
	t.Helper()
	store := lifecycle.NewStore()
	p := store.Create(sampleAttributes(), models.StyleLuxury, models.LocaleEN)
	return store, New(store, gen, config), p
}

func TestGenerate_RemoteSuccess(t *testing.T) {
	stub := newStub()
	store, o, p := setup(t, namedStub{stub}, Config{})

	text, err := o.Generate(context.Background(), p.ID, models.KindText, Options{})
	if err != nil {
		t.Fatalf("Generate(text) error = %v", err)
	}
	if text.Value != "remote text" || text.Provenance != models.ProvenanceRemote || text.Model != "text-model" {
		t.Errorf("text artifact = %+v", text)
	}
	if text.Locale != models.LocaleEN {
		t.Errorf("text locale = %s, want project locale", text.Locale)
	}

	render, err := o.Generate(context.Background(), p.ID, models.KindRender, Options{Style: models.StyleArabic})
	if err != nil {
		t.Fatalf("Generate(render) error = %v", err)
	}
	if render.Value != "https://cdn.example/render.png" || render.Style != models.StyleArabic || render.Model != "image-model" {
		t.Errorf("render artifact = %+v", render)
	}
	if !strings.Contains(stub.lastSpec().User, "arabic") {
		t.Errorf("image prompt does not use requested style: %q", stub.lastSpec().User)
	}

	got, _ := store.Get(p.ID)
	if got.TextStatus != models.StatusReady || got.RenderStatus != models.StatusReady {
		t.Errorf("statuses = %s/%s, want ready/ready", got.TextStatus, got.RenderStatus)
	}
	if len(o.Active()) != 0 {
		t.Errorf("Active() = %v, want none", o.Active())
	}
}

func TestGenerate_DegradesOnEveryRemoteError(t *testing.T) {
	errs := []struct {
		name string
		err  error
		kind remote.ErrorKind
	}{
		{"not configured", &remote.Error{Kind: remote.KindNotConfigured, Err: remote.ErrNotConfigured}, remote.KindNotConfigured},
		{"unreachable", &remote.Error{Kind: remote.KindUnreachable, Err: errors.New("dial tcp")}, remote.KindUnreachable},
		{"invalid response", &remote.Error{Kind: remote.KindInvalidResponse, Status: 500}, remote.KindInvalidResponse},
		{"unclassified", errors.New("weird"), remote.KindInvalidResponse},
	}

	for _, tt := range errs {
		for _, kind := range models.ArtifactKinds {
			t.Run(tt.name+"/"+string(kind), func(t *testing.T) {
				stub := newStub()
				stub.err = tt.err
				store, o, p := setup(t, stub, Config{})

				a, err := o.Generate(context.Background(), p.ID, kind, Options{})
				if err != nil {
					t.Fatalf("Generate() error = %v, remote errors must be absorbed", err)
				}
				if a.Provenance != models.ProvenanceFallback || a.FallbackReason != string(tt.kind) {
					t.Errorf("artifact provenance = %s reason = %q", a.Provenance, a.FallbackReason)
				}

				want := fallback.Text(p, models.LocaleEN)
				if kind == models.KindRender {
					want = string(fallback.Image(models.StyleLuxury))
				}
				if a.Value != want {
					t.Errorf("artifact value differs from fallback output")
				}

				got, _ := store.Get(p.ID)
				if got.Status(kind) != models.StatusReady {
					t.Errorf("status = %s, want ready", got.Status(kind))
				}
			})
		}
	}
}

func TestGenerate_NoCredentialEqualsFallback(t *testing.T) {
	client := remote.NewClient(remote.Config{})
	_, o, p := setup(t, client, Config{})

	a, err := o.Generate(context.Background(), p.ID, models.KindText, Options{Locale: models.LocaleRU})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if a.Value != fallback.Text(p, models.LocaleRU) {
		t.Errorf("text = %q, want fallback.Text output", a.Value)
	}
	if a.FallbackReason != string(remote.KindNotConfigured) {
		t.Errorf("FallbackReason = %q", a.FallbackReason)
	}
}

func TestGenerate_ServerErrorEqualsNoCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	failing := remote.NewClient(remote.Config{APIKey: "key", BaseURL: srv.URL})
	_, o1, p1 := setup(t, failing, Config{})
	_, o2, p2 := setup(t, remote.NewClient(remote.Config{}), Config{})

	for _, kind := range models.ArtifactKinds {
		a1, err := o1.Generate(context.Background(), p1.ID, kind, Options{})
		if err != nil {
			t.Fatalf("Generate() with HTTP 500 error = %v", err)
		}
		a2, err := o2.Generate(context.Background(), p2.ID, kind, Options{})
		if err != nil {
			t.Fatalf("Generate() without credential error = %v", err)
		}
		if a1.Value != a2.Value {
			t.Errorf("%s: HTTP 500 result differs from no-credential result", kind)
		}
	}
}

func TestGenerate_SingleFlight(t *testing.T) {
	stub := newStub()
	gate := make(chan struct{})
	stub.gate = gate
	stub.started = make(chan struct{}, 8)
	guard := NewMemoryGuard()
	store, o, p := setup(t, stub, Config{Guard: guard})

	results, err := o.Submit(context.Background(), p.ID, models.KindRender, Options{}, false)
	if err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	<-stub.started

	if _, err := o.Generate(context.Background(), p.ID, models.KindRender, Options{}); !errors.Is(err, ErrAlreadyInProgress) {
		t.Errorf("second Generate() error = %v, want ErrAlreadyInProgress", err)
	}
	if _, err := o.Regenerate(context.Background(), p.ID, models.KindRender, Options{}); !errors.Is(err, ErrAlreadyInProgress) {
		t.Errorf("Regenerate() error = %v, want ErrAlreadyInProgress", err)
	}
	if stub.Calls() != 1 {
		t.Errorf("remote calls = %d, rejected calls must not reach the generator", stub.Calls())
	}

	// The other kind is independent.
	stub.mu.Lock()
	stub.gate = nil
	stub.mu.Unlock()
	if _, err := o.Generate(context.Background(), p.ID, models.KindText, Options{}); err != nil {
		t.Errorf("Generate(text) during render flight error = %v", err)
	}

	active := o.Active()
	if len(active) != 1 || active[0].Kind != models.KindRender || active[0].ProjectID != p.ID {
		t.Errorf("Active() = %+v", active)
	}

	got, _ := store.Get(p.ID)
	if got.RenderStatus != models.StatusPending {
		t.Errorf("RenderStatus = %s, want pending", got.RenderStatus)
	}

	close(gate)
	r := <-results
	if r.Err != nil {
		t.Fatalf("first generation error = %v", r.Err)
	}
	if guard.Held(FlightKey(p.ID, models.KindRender)) {
		t.Error("flight slot not released")
	}
	if stub.Calls() != 2 {
		t.Errorf("remote calls = %d, want 2 (one render, one text)", stub.Calls())
	}

	if _, err := o.Generate(context.Background(), p.ID, models.KindRender, Options{}); err != nil {
		t.Errorf("Generate() after completion error = %v", err)
	}
}

func TestGenerate_SingleFlightProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		callers := rapid.IntRange(2, 16).Draw(rt, "callers")
		kind := rapid.SampledFrom(models.ArtifactKinds).Draw(rt, "kind")

		stub := newStub()
		gate := make(chan struct{})
		stub.gate = gate
		store := lifecycle.NewStore()
		p := store.Create(models.Attributes{}, "", "")
		o := New(store, stub, Config{})

		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			accepted   []<-chan Result
			rejected   int
			unexpected []error
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ch, err := o.Submit(context.Background(), p.ID, kind, Options{}, false)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					accepted = append(accepted, ch)
				case errors.Is(err, ErrAlreadyInProgress):
					rejected++
				default:
					unexpected = append(unexpected, err)
				}
			}()
		}
		wg.Wait()
		close(gate)
		o.Wait()

		if len(unexpected) > 0 {
			rt.Fatalf("Submit() unexpected errors = %v", unexpected)
		}
		if len(accepted) != 1 || rejected != callers-1 {
			rt.Fatalf("accepted = %d rejected = %d, want 1 and %d", len(accepted), rejected, callers-1)
		}
		if stub.Calls() != 1 {
			rt.Fatalf("remote calls = %d, want 1", stub.Calls())
		}
		got, _ := store.Get(p.ID)
		if got.Status(kind) != models.StatusReady {
			rt.Fatalf("status = %s, want ready", got.Status(kind))
		}
	})
}

func TestRegenerate_RequiresReady(t *testing.T) {
	stub := newStub()
	_, o, p := setup(t, stub, Config{})

	if _, err := o.Regenerate(context.Background(), p.ID, models.KindText, Options{}); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("Regenerate() before generate error = %v, want ErrInvalidTransition", err)
	}
	if stub.Calls() != 0 {
		t.Errorf("remote calls = %d, want 0", stub.Calls())
	}

	first, err := o.Generate(context.Background(), p.ID, models.KindText, Options{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	stub.text = "second text"
	second, err := o.Regenerate(context.Background(), p.ID, models.KindText, Options{})
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if first.Value == second.Value || second.Value != "second text" {
		t.Errorf("regenerated value = %q, first = %q", second.Value, first.Value)
	}
}

func TestRegenerate_StaleWhileRevalidate(t *testing.T) {
	stub := newStub()
	stub.text = "v1"
	store, o, p := setup(t, stub, Config{})

	if _, err := o.Generate(context.Background(), p.ID, models.KindText, Options{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	gate := make(chan struct{})
	stub.mu.Lock()
	stub.text = "v2"
	stub.gate = gate
	stub.started = make(chan struct{}, 1)
	stub.mu.Unlock()

	results, err := o.Submit(context.Background(), p.ID, models.KindText, Options{}, true)
	if err != nil {
		t.Fatalf("Submit(regenerate) error = %v", err)
	}
	<-stub.started

	// Sample repeatedly while the regeneration is blocked.
	for i := 0; i < 50; i++ {
		got, _ := store.Get(p.ID)
		if got.Text == nil || got.Text.Value != "v1" {
			t.Fatalf("sample %d: text = %+v, previous artifact must stay visible", i, got.Text)
		}
		if got.TextStatus != models.StatusPending {
			t.Fatalf("sample %d: status = %s, want pending", i, got.TextStatus)
		}
	}

	close(gate)
	if r := <-results; r.Err != nil {
		t.Fatalf("regenerate error = %v", r.Err)
	}
	got, _ := store.Get(p.ID)
	if got.Text.Value != "v2" || got.TextStatus != models.StatusReady {
		t.Errorf("after regenerate text = %q status = %s", got.Text.Value, got.TextStatus)
	}
}

func TestRegenerate_RewritesWithTone(t *testing.T) {
	stub := newStub()
	stub.text = "Original listing copy"
	_, o, p := setup(t, stub, Config{})

	if _, err := o.Generate(context.Background(), p.ID, models.KindText, Options{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := o.Regenerate(context.Background(), p.ID, models.KindText, Options{Tone: models.ToneInvestment, Focus: "rental yield"}); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}

	spec := stub.lastSpec()
	if !strings.Contains(spec.User, "Original listing copy") || !strings.Contains(spec.User, "rental yield") {
		t.Errorf("rewrite prompt = %q", spec.User)
	}

	// Fallback for a rewrite is still the plain fallback description.
	stub.err = &remote.Error{Kind: remote.KindUnreachable}
	a, err := o.Regenerate(context.Background(), p.ID, models.KindText, Options{Tone: models.ToneFamily})
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if a.Value != fallback.Text(p, models.LocaleEN) {
		t.Errorf("rewrite fallback = %q", a.Value)
	}
}

func TestGenerate_RetriesUnreachableOnly(t *testing.T) {
	unreachable := &remote.Error{Kind: remote.KindUnreachable, Err: errors.New("connection refused")}
	invalid := &remote.Error{Kind: remote.KindInvalidResponse, Status: 502}

	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantCalls int
		wantProv  models.Provenance
	}{
		{"recovers after retries", []error{unreachable, unreachable}, 2, 3, models.ProvenanceRemote},
		{"gives up after max retries", []error{unreachable, unreachable, unreachable}, 2, 3, models.ProvenanceFallback},
		{"no retry by default", []error{unreachable}, 0, 1, models.ProvenanceFallback},
		{"invalid response is not retried", []error{invalid}, 3, 1, models.ProvenanceFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			stub.errs = tt.errs
			_, o, p := setup(t, stub, Config{MaxRetries: tt.retries, RetryInitial: time.Millisecond, RetryMax: 2 * time.Millisecond})

			a, err := o.Generate(context.Background(), p.ID, models.KindText, Options{})
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if stub.Calls() != tt.wantCalls {
				t.Errorf("remote calls = %d, want %d", stub.Calls(), tt.wantCalls)
			}
			if a.Provenance != tt.wantProv {
				t.Errorf("provenance = %s, want %s", a.Provenance, tt.wantProv)
			}
		})
	}
}

func TestGenerate_AlertsHostOnceWhenNotConfigured(t *testing.T) {
	rec := &host.Recorder{}
	store := lifecycle.NewStore()
	o := New(store, remote.NewClient(remote.Config{}), Config{Host: rec})

	for i := 0; i < 3; i++ {
		p := store.Create(models.Attributes{}, "", "")
		ctx := host.WithUser(context.Background(), "user-1")
		if _, err := o.Generate(ctx, p.ID, models.KindRender, Options{}); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}
	if rec.AlertCount() != 1 {
		t.Errorf("alerts = %d, want 1", rec.AlertCount())
	}
}

func TestGenerate_CallerCancellationStillCommits(t *testing.T) {
	stub := newStub()
	gate := make(chan struct{})
	stub.gate = gate
	stub.started = make(chan struct{}, 1)
	store, o, p := setup(t, stub, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := o.Generate(ctx, p.ID, models.KindRender, Options{})
		done <- err
	}()
	<-stub.started
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}

	close(gate)
	o.Wait()

	got, _ := store.Get(p.ID)
	if got.RenderStatus != models.StatusReady || got.Render == nil || got.Render.Provenance != models.ProvenanceRemote {
		t.Errorf("abandoned generation not committed: status = %s render = %+v", got.RenderStatus, got.Render)
	}
}

func TestGenerate_UnknownProjectReleasesSlot(t *testing.T) {
	stub := newStub()
	guard := NewMemoryGuard()
	_, o, _ := setup(t, stub, Config{Guard: guard})

	_, err := o.Generate(context.Background(), "missing", models.KindText, Options{})
	if !errors.Is(err, lifecycle.ErrProjectNotFound) {
		t.Fatalf("Generate() error = %v, want ErrProjectNotFound", err)
	}
	if guard.Held(FlightKey("missing", models.KindText)) {
		t.Error("flight slot leaked")
	}
	if stub.Calls() != 0 {
		t.Errorf("remote calls = %d, want 0", stub.Calls())
	}

	if _, err := o.Generate(context.Background(), "missing", models.ArtifactKind("video"), Options{}); err == nil {
		t.Error("expected error for unknown artifact kind")
	}
}

func TestGenerate_ProjectDeletedMidFlight(t *testing.T) {
	stub := newStub()
	gate := make(chan struct{})
	stub.gate = gate
	stub.started = make(chan struct{}, 1)
	store, o, p := setup(t, stub, Config{})

	results, err := o.Submit(context.Background(), p.ID, models.KindText, Options{}, false)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-stub.started
	if err := store.Delete(p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	close(gate)

	if r := <-results; !errors.Is(r.Err, lifecycle.ErrProjectNotFound) {
		t.Errorf("result error = %v, want ErrProjectNotFound", r.Err)
	}
	if len(o.Active()) != 0 {
		t.Error("task not cleared")
	}
}

func TestGenerate_PanicRestoresStatus(t *testing.T) {
	stub := newStub()
	stub.panics = true
	store, o, p := setup(t, stub, Config{})

	if _, err := o.Generate(context.Background(), p.ID, models.KindRender, Options{}); err == nil {
		t.Fatal("expected error from panicking generator")
	}
	got, _ := store.Get(p.ID)
	if got.RenderStatus != models.StatusIdle {
		t.Errorf("RenderStatus = %s, want idle", got.RenderStatus)
	}

	stub.mu.Lock()
	stub.panics = false
	stub.mu.Unlock()
	if _, err := o.Generate(context.Background(), p.ID, models.KindRender, Options{}); err != nil {
		t.Errorf("Generate() after panic error = %v", err)
	}
}
