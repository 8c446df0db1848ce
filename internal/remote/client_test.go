package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

func newTestClient(url string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: url, Referer: "https://estate.example/app", Timeout: 2 * time.Second})
}

func TestNotConfiguredMakesNoRequest(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if client.Configured() {
		t.Fatal("client without key should not be configured")
	}

	_, err := client.GenerateText(context.Background(), prompt.Spec{User: "hi"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("GenerateText error = %v, want ErrNotConfigured", err)
	}
	_, err = client.GenerateImage(context.Background(), prompt.Spec{User: "hi"})
	if KindOf(err) != KindNotConfigured {
		t.Errorf("GenerateImage kind = %q, want %q", KindOf(err), KindNotConfigured)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	var received chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST method, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "DubaiEstate AI" {
			t.Errorf("X-Title = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "https://estate.example/app" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != config.UserAgent() {
			t.Errorf("User-Agent = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("failed to unmarshal payload: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  A lovely villa.  "}}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.GenerateText(context.Background(), prompt.Spec{System: "sys", User: "describe"})
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "A lovely villa." {
		t.Errorf("text = %q, want trimmed content", text)
	}
	if received.Model != client.TextModel() {
		t.Errorf("model = %q, want %q", received.Model, client.TextModel())
	}
	if len(received.Messages) != 2 || received.Messages[0].Role != "system" || received.Messages[1].Role != "user" {
		t.Errorf("unexpected messages: %+v", received.Messages)
	}
	if len(received.Modalities) != 0 {
		t.Errorf("text request should not set modalities, got %v", received.Modalities)
	}
}

func TestGenerateImageFormats(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "data url string",
			body: `{"choices":[{"message":{"content":"","images":["data:image/png;base64,AAAA"]}}]}`,
			want: "data:image/png;base64,AAAA",
		},
		{
			name: "image_url part",
			body: `{"choices":[{"message":{"images":[{"type":"image_url","image_url":{"url":"https://cdn.example.com/r.png"}}]}}]}`,
			want: "https://cdn.example.com/r.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received chatRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&received)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			ref, err := client.GenerateImage(context.Background(), prompt.Spec{User: "render", ImageURL: "https://cdn.example.com/plan.png"})
			if err != nil {
				t.Fatalf("GenerateImage failed: %v", err)
			}
			if string(ref) != tt.want {
				t.Errorf("ref = %q, want %q", ref, tt.want)
			}
			if received.Model != client.ImageModel() {
				t.Errorf("model = %q, want %q", received.Model, client.ImageModel())
			}
			if len(received.Modalities) != 2 {
				t.Errorf("modalities = %v, want [image text]", received.Modalities)
			}
		})
	}
}

func TestInvalidResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		image  bool
	}{
		{name: "http 500", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "http 401", status: http.StatusUnauthorized, body: `{"error":"bad key"}`},
		{name: "malformed json", status: http.StatusOK, body: `{"choices":`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`},
		{name: "missing content", status: http.StatusOK, body: `{"choices":[{"message":{}}]}`},
		{name: "no image", status: http.StatusOK, body: `{"choices":[{"message":{"content":"sorry"}}]}`, image: true},
		{name: "malformed image", status: http.StatusOK, body: `{"choices":[{"message":{"images":[{"type":"image_url"}]}}]}`, image: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			var err error
			if tt.image {
				_, err = client.GenerateImage(context.Background(), prompt.Spec{User: "x"})
			} else {
				_, err = client.GenerateText(context.Background(), prompt.Spec{User: "x"})
			}
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(url)
	_, err := client.GenerateText(context.Background(), prompt.Spec{User: "x"})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error = %v, want ErrUnreachable", err)
	}
}

func TestTimeoutIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := client.GenerateText(context.Background(), prompt.Spec{User: "x"})
	if KindOf(err) != KindUnreachable {
		t.Errorf("kind = %q, want %q (err: %v)", KindOf(err), KindUnreachable, err)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: KindInvalidResponse, Op: "text", Status: 500, Err: errors.New("body: x")}
	want := "remote text: invalid_response (status 500): body: x"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf on a plain error should be empty")
	}
}
