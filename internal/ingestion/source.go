// Package ingestion loads source material into markdown: local markdown
// and HTML files, plus URLs fetched over HTTP with a headless-browser
// fallback for JavaScript-rendered pages.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one URL fetch.
const DefaultTimeout = 30 * time.Second

const defaultUserAgent = "Mozilla/5.0 (compatible; DeckAgent/1.0)"

// minRenderedLength is the minimum markdown length below which an HTTP
// fetch is assumed to have hit a JavaScript-rendered page and the
// headless browser takes over.
const minRenderedLength = 500

// Error reports a failed source load.
type Error struct {
	Source  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ingestion error for %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("ingestion error for %s: %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FromFile loads a local markdown or HTML file as markdown.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Source: path, Message: "failed to read file", Cause: err}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		markdown, err := HTMLToMarkdown(string(data))
		if err != nil {
			return "", &Error{Source: path, Message: "failed to convert HTML", Cause: err}
		}
		return markdown, nil
	default:
		return string(data), nil
	}
}

// FromURL fetches a page and converts it to markdown. Pages whose static
// HTML yields too little content are re-rendered in a headless browser.
func FromURL(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{Source: urlStr, Message: "invalid URL", Cause: err}
	}

	html, err := fetchHTTP(ctx, urlStr)
	if err != nil {
		return "", err
	}
	markdown, err := HTMLToMarkdown(html)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "failed to convert HTML", Cause: err}
	}
	if len(strings.TrimSpace(markdown)) >= minRenderedLength {
		return markdown, nil
	}

	rendered, err := fetchBrowser(ctx, urlStr)
	if err != nil {
		// Static content stands when the browser is unavailable.
		if markdown != "" {
			return markdown, nil
		}
		return "", err
	}
	browserMarkdown, err := HTMLToMarkdown(rendered)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "failed to convert rendered HTML", Cause: err}
	}
	if len(browserMarkdown) > len(markdown) {
		return browserMarkdown, nil
	}
	return markdown, nil
}

func fetchHTTP(ctx context.Context, urlStr string) (string, error) {
	client := &http.Client{Timeout: DefaultTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Source: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return string(body), nil
}

// fetchBrowser renders the page in headless Chrome and returns the DOM
// after scripts have run. Requires Chrome/Chromium on the system.
func fetchBrowser(ctx context.Context, urlStr string) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, DefaultTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{Source: urlStr, Message: "browser rendering failed", Cause: err}
	}
	return html, nil
}
