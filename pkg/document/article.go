package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// DefaultMaxBytes caps fetched HTML at 10 MB.
const DefaultMaxBytes = 10 * 1024 * 1024

// ErrTooLarge is returned when a response exceeds the fetcher's size limit.
var ErrTooLarge = errors.New("response body exceeds size limit")

// StatusError reports a non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana inline otherwise, so "漢字"
// would come out as "漢字かんじ".
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}

// Article is the readable part of a web page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// ExtractArticle runs readability over an HTML document.
func ExtractArticle(r io.Reader, pageURL *url.URL) (Article, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	a := Article{
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
		Text:     article.TextContent,
	}
	if pageURL != nil {
		a.URL = pageURL.String()
	}
	return a, nil
}

// Fetcher downloads pages with browser-like headers.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
	Header   http.Header
}

// NewFetcher returns a fetcher with a 30s timeout and the default size limit.
func NewFetcher() *Fetcher {
	h := http.Header{}
	// Some sites block unknown agents (403 or Cloudflare challenges).
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")
	h.Set("Referer", "https://www.google.com/")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "cross-site")
	h.Set("Upgrade-Insecure-Requests", "1")
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		MaxBytes: DefaultMaxBytes,
		Header:   h,
	}
}

// Fetch returns the body of rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range f.Header {
		req.Header[k] = v
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("content-length %d: %w", resp.ContentLength, ErrTooLarge)
	}
	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("limit %d bytes: %w", limit, ErrTooLarge)
	}
	return body, nil
}

// FetchArticle downloads rawURL, strips ruby annotations and extracts the
// article.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return Article{}, err
	}
	return ExtractArticle(bytes.NewReader(SanitizeRuby(body)), parsed)
}
