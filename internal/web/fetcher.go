package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxContentLength = 5000
)

var (
	ErrInvalidURL    = errors.New("invalid url")
	ErrInvalidFormat = errors.New("unknown format")
)

// FetchError reports that the outbound request could not complete.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

// Result is what a single fetch produced.
type Result struct {
	URL         string // as requested
	FinalURL    string // after redirects
	Status      int
	ContentType string
	Title       string // HTML only
	Content     string
	Truncated   bool
	Length      int // characters before truncation
	FetchedAt   time.Time
}

type Options struct {
	// MaxContentLength caps the characters returned in Result.Content.
	MaxContentLength int
	// Timeout bounds each outbound request.
	Timeout time.Duration
	// UserAgent is sent on every request; empty rotates browser UAs.
	UserAgent string
}

// Fetcher performs one GET per call. It does not retry or cache.
type Fetcher struct {
	c         *colly.Collector
	maxLength int
	userAgent string
}

func NewFetcher(opts Options) *Fetcher {
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = DefaultMaxContentLength
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(opts.Timeout)
	// Clones share the backend client, so a jar would carry one caller's
	// cookies into every later fetch.
	c.DisableCookies()
	return &Fetcher{c: c, maxLength: opts.MaxContentLength, userAgent: opts.UserAgent}
}

// MaxContentLength reports the truncation limit in characters.
func (f *Fetcher) MaxContentLength() int { return f.maxLength }

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return errors.Wrap(ErrInvalidURL, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Wrap(ErrInvalidURL, "url must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.Wrap(ErrInvalidURL, "url has no host")
	}
	return nil
}

// Fetch GETs rawURL and renders the body in the requested format. Any HTTP
// status is a successful result; transport failures return *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, format Format) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, &FetchError{URL: rawURL, Err: ctx.Err()}
	}

	// Callbacks are registered per call on a clone so concurrent fetches
	// never see each other's responses.
	c := f.c.Clone()
	c.Context = ctx
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true
	c.IgnoreRobotsTxt = true

	var resp *colly.Response
	c.OnRequest(func(r *colly.Request) {
		ua := f.userAgent
		if ua == "" {
			ua = NextUserAgent()
		}
		r.Headers.Set("User-Agent", ua)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})

	if err := c.Visit(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if ctx.Err() != nil {
		return nil, &FetchError{URL: rawURL, Err: ctx.Err()}
	}
	if resp == nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("no response from %s", rawURL)}
	}

	contentType := ""
	if resp.Headers != nil {
		contentType = resp.Headers.Get("Content-Type")
	}
	title, body := render(resp.Body, contentType, format)
	content, truncated := Truncate(body, f.maxLength)

	return &Result{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: contentType,
		Title:       title,
		Content:     content,
		Truncated:   truncated,
		Length:      utf8.RuneCountInString(body),
		FetchedAt:   time.Now(),
	}, nil
}

// Truncate keeps at most max characters of s without splitting a rune.
func Truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
