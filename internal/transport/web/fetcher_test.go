package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tags stripped",
			in:   "<html><body><h1>Java Developer</h1><p>Work with <b>stakeholders</b>.</p></body></html>",
			want: "Java Developer Work with stakeholders .",
		},
		{
			name: "script and style dropped",
			in:   "<head><style>p{color:red}</style><script>var x = 1;</script></head><p>Hello</p>",
			want: "Hello",
		},
		{
			name: "entities decoded",
			in:   "<p>R&amp;D &lt;team&gt; &quot;QA&quot;</p>",
			want: `R&D <team> "QA"`,
		},
		{
			name: "whitespace collapsed",
			in:   "<div>\n\n  a \t\t b  </div>\n<br/>c",
			want: "a b c",
		},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a user agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Looking for a <em>COBOL</em> developer</p></body></html>"))
	}))
	defer server.Close()

	text, err := NewFetcher(0, zap.NewNop()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Looking for a COBOL developer" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestFetcher_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  Senior   <analyst>\n role "))
	}))
	defer server.Close()

	text, err := NewFetcher(0, zap.NewNop()).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Senior <analyst> role" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestFetcher_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) }},
		{"empty text", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html><script>only()</script></html>"))
		}},
		{"slow", func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("<p>late</p>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewFetcher(50*time.Millisecond, zap.NewNop()).Fetch(context.Background(), server.URL)
			if !errors.Is(err, domain.ErrSourceFetch) {
				t.Fatalf("expected ErrSourceFetch, got %v", err)
			}
			var sfe *domain.SourceFetchError
			if !errors.As(err, &sfe) || sfe.URL != server.URL {
				t.Errorf("expected SourceFetchError for %s, got %v", server.URL, err)
			}
		})
	}
}

func TestFetcher_InvalidURL(t *testing.T) {
	_, err := NewFetcher(time.Second, zap.NewNop()).Fetch(context.Background(), "://bad")
	if !errors.Is(err, domain.ErrSourceFetch) {
		t.Fatalf("expected ErrSourceFetch, got %v", err)
	}
}
