// Package web dereferences job description URLs into plain text.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 5 << 20
	userAgent      = "assessrec/1.0 (+job-description-fetcher)"
)

// Fetcher implements domain.SourceFetcher over HTTP.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher. timeout <= 0 selects DefaultTimeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}, logger: logger}
}

// Fetch downloads url and returns its visible text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", domain.NewSourceFetch(url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", domain.NewSourceFetch(url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", domain.NewSourceFetch(url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	var text string
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", domain.NewSourceFetch(url, fmt.Errorf("read body: %w", err))
		}
		text = strings.Join(strings.Fields(string(raw)), " ")
	} else {
		text, err = ExtractText(body)
		if err != nil {
			return "", domain.NewSourceFetch(url, err)
		}
	}

	if text == "" {
		return "", domain.NewSourceFetch(url, errors.New("no text extracted"))
	}

	f.logger.Debug("Fetched job description", zap.String("url", url), zap.Int("chars", len(text)))
	return text, nil
}

// ExtractText strips markup from an HTML document. Script and style content is
// dropped, entities are decoded and whitespace runs collapse to single spaces.
func ExtractText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("parse html: %w", err)
			}
			return strings.Join(strings.Fields(b.String()), " "), nil
		case html.StartTagToken:
			if hidden(z) {
				skip++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if hidden(z) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				// Text() returns entity-decoded content.
				b.Write(z.Text())
			}
		}
	}
}

func hidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}
