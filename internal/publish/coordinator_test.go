package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/channels"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publisher"
)

type recordingSender struct {
	mu    sync.Mutex
	posts []publisher.Post
	err   error
}

func (s *recordingSender) Send(ctx context.Context, ch models.Channel, post publisher.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = append(s.posts, post)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

type fixture struct {
	store    *lifecycle.Store
	registry *channels.Registry
	sender   *recordingSender
	host     *host.Recorder
	coord    *Coordinator
	project  models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    lifecycle.NewStore(),
		registry: channels.NewRegistry(nil),
		sender:   &recordingSender{},
		host:     &host.Recorder{Answer: true},
	}
	f.registry.Put(models.Channel{ID: "c1", Title: "Dubai Listings", Kind: models.ChannelTelegram, Target: "@dubai"})
	f.coord = NewCoordinator(f.store, f.registry, f.sender, f.host)
	f.project = f.store.Create(models.Attributes{Location: "Dubai Marina", Price: "2500000", Currency: "AED"}, models.StyleModern, models.LocaleEN)
	return f
}

func (f *fixture) setStatus(t *testing.T, kind models.ArtifactKind, status models.Status) {
	t.Helper()
	if status == models.StatusIdle {
		return
	}
	if _, err := f.store.BeginGeneration(f.project.ID, kind); err != nil {
		t.Fatalf("BeginGeneration() error = %v", err)
	}
	if status == models.StatusPending {
		return
	}
	value := "https://cdn.example/render.png"
	if kind == models.KindText {
		value = "Stunning marina views."
	}
	if _, err := f.store.ApplyArtifact(f.project.ID, kind, models.Artifact{Value: value, Provenance: models.ProvenanceRemote}); err != nil {
		t.Fatalf("ApplyArtifact() error = %v", err)
	}
}

func (f *fixture) history(t *testing.T) []models.PublishRecord {
	t.Helper()
	p, err := f.store.Get(f.project.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	return p.Publications
}

func TestPublish_RenderNotReadyForEveryTextStatus(t *testing.T) {
	statuses := []models.Status{models.StatusIdle, models.StatusPending, models.StatusReady}
	for _, render := range []models.Status{models.StatusIdle, models.StatusPending} {
		for _, text := range statuses {
			t.Run(string(render)+"/"+string(text), func(t *testing.T) {
				f := newFixture(t)
				f.setStatus(t, models.KindRender, render)
				f.setStatus(t, models.KindText, text)

				_, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{})
				if !errors.Is(err, ErrRenderNotReady) {
					t.Fatalf("Publish() error = %v, want ErrRenderNotReady", err)
				}
				if f.sender.count() != 0 || len(f.history(t)) != 0 {
					t.Error("precondition failure must not deliver or record")
				}
			})
		}
	}
}

func TestPublish_UnknownChannel(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, models.KindRender, models.StatusReady)

	_, err := f.coord.Publish(context.Background(), f.project.ID, "nope", Options{})
	if !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("Publish() error = %v, want ErrUnknownChannel", err)
	}
	if f.sender.count() != 0 || len(f.history(t)) != 0 || f.host.ConfirmCount() != 0 {
		t.Error("unknown channel must fail before confirming, delivering or recording")
	}
}

func TestPublish_ProjectNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.coord.Publish(context.Background(), "missing", "c1", Options{}); !errors.Is(err, lifecycle.ErrProjectNotFound) {
		t.Errorf("Publish() error = %v, want ErrProjectNotFound", err)
	}
}

func TestPublish_RenderAndText(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, models.KindRender, models.StatusReady)
	f.setStatus(t, models.KindText, models.StatusReady)

	rec, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{UserID: "42"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if f.host.ConfirmCount() != 0 {
		t.Error("no confirmation expected when text is ready")
	}

	post := f.sender.posts[0]
	if post.Image != "https://cdn.example/render.png" || post.Text != "Stunning marina views." {
		t.Errorf("post = %+v", post)
	}
	if post.Title != "Dubai Marina · 2500000 AED" {
		t.Errorf("title = %q", post.Title)
	}

	if rec.Outcome != models.OutcomeDelivered || rec.PublishedBy != "42" || rec.ChannelID != "c1" || rec.Text == nil {
		t.Errorf("record = %+v", rec)
	}
	history := f.history(t)
	if len(history) != 1 || history[0].ID != rec.ID {
		t.Errorf("history = %+v", history)
	}

	// Artifact statuses are untouched by publishing.
	p, _ := f.store.Get(f.project.ID)
	if p.RenderStatus != models.StatusReady || p.TextStatus != models.StatusReady {
		t.Errorf("statuses = %s/%s", p.RenderStatus, p.TextStatus)
	}
}

func TestPublish_WithoutTextAsksHost(t *testing.T) {
	for _, text := range []models.Status{models.StatusIdle, models.StatusPending} {
		t.Run("declined/"+string(text), func(t *testing.T) {
			f := newFixture(t)
			f.host.Answer = false
			f.setStatus(t, models.KindRender, models.StatusReady)
			f.setStatus(t, models.KindText, text)

			_, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{})
			if !errors.Is(err, ErrCancelled) {
				t.Fatalf("Publish() error = %v, want ErrCancelled", err)
			}
			if f.host.ConfirmCount() != 1 || f.sender.count() != 0 || len(f.history(t)) != 0 {
				t.Error("declined publish must not deliver or record")
			}
		})

		t.Run("accepted/"+string(text), func(t *testing.T) {
			f := newFixture(t)
			f.setStatus(t, models.KindRender, models.StatusReady)
			f.setStatus(t, models.KindText, text)

			ctx := host.WithUser(context.Background(), "777")
			rec, err := f.coord.Publish(ctx, f.project.ID, "c1", Options{})
			if err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
			if rec.Text != nil || f.sender.posts[0].Text != "" {
				t.Error("render-only publish should carry no text")
			}
			if rec.PublishedBy != "777" {
				t.Errorf("PublishedBy = %q, want user from context", rec.PublishedBy)
			}
		})
	}
}

func TestPublish_DeliveryFailureIsRecorded(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, models.KindRender, models.StatusReady)
	f.setStatus(t, models.KindText, models.StatusReady)
	sendErr := errors.New("telegram API error: chat not found")
	f.sender.err = sendErr

	rec, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{})
	if !errors.Is(err, ErrDeliveryFailed) || !errors.Is(err, sendErr) {
		t.Fatalf("Publish() error = %v, want ErrDeliveryFailed wrapping the cause", err)
	}
	if f.sender.count() != 1 {
		t.Errorf("delivery attempts = %d, want exactly 1", f.sender.count())
	}
	if rec.Outcome != models.OutcomeFailed || rec.Error != sendErr.Error() {
		t.Errorf("record = %+v", rec)
	}

	f.sender.err = nil
	if _, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{}); err != nil {
		t.Fatalf("retry Publish() error = %v", err)
	}
	history := f.history(t)
	if len(history) != 2 || history[0].Outcome != models.OutcomeFailed || history[1].Outcome != models.OutcomeDelivered {
		t.Errorf("history = %+v, want failed then delivered", history)
	}
}

func TestPublish_PartialDeliveryIsNotAFailure(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, models.KindRender, models.StatusReady)
	f.setStatus(t, models.KindText, models.StatusReady)
	f.sender.err = fmt.Errorf("telegram: %w: sendMessage: status 500", publisher.ErrPartialDelivery)

	rec, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{})
	if !errors.Is(err, ErrPartialDelivery) {
		t.Fatalf("Publish() error = %v, want ErrPartialDelivery", err)
	}
	if errors.Is(err, ErrDeliveryFailed) {
		t.Error("partial delivery must not read as a failed delivery")
	}
	if rec.Outcome != models.OutcomePartial || rec.Error == "" {
		t.Errorf("record = %+v, want partial with the cause", rec)
	}
	history := f.history(t)
	if len(history) != 1 || history[0].Outcome != models.OutcomePartial {
		t.Errorf("history = %+v", history)
	}
}

func TestPublish_ConcurrentPublishesAreIndependent(t *testing.T) {
	f := newFixture(t)
	f.setStatus(t, models.KindRender, models.StatusReady)
	f.setStatus(t, models.KindText, models.StatusReady)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.coord.Publish(context.Background(), f.project.ID, "c1", Options{}); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(f.history(t)); got != n {
		t.Errorf("history = %d records, want %d", got, n)
	}
}

func TestHeadline(t *testing.T) {
	p := models.NewProject("p", models.Attributes{}, "", models.LocaleRU)
	if got := Headline(*p); got != "престижном районе Дубая" {
		t.Errorf("Headline(empty) = %q", got)
	}
	p.Attributes = models.Attributes{Tower: "Cayan Tower", Price: "900000"}
	if got := Headline(*p); got != "Cayan Tower · 900000" {
		t.Errorf("Headline() = %q", got)
	}
}
