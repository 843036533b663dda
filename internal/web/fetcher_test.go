package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const page = `<html><head><title>Sample Page</title>
<script>var tracking = "secret";</script><style>body{color:red}</style></head>
<body><h1>Hello</h1>
<p>First   paragraph
with <a href="/next">a link</a>.</p></body></html>`

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, strings.Repeat("é", 50))
	})
	mux.HandleFunc("/ua", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, r.UserAgent())
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "nothing here")
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/plain", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "alice-secret", Path: "/"})
		fmt.Fprint(w, "logged in")
	})
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if c, err := r.Cookie("session"); err == nil {
			fmt.Fprint(w, "cookie="+c.Value)
			return
		}
		fmt.Fprint(w, "no cookie")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRaw(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{MaxContentLength: 10000})

	res, err := f.Fetch(context.Background(), srv.URL+"/page", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if res.Content != page {
		t.Errorf("raw content altered:\n%s", res.Content)
	}
	if res.Truncated {
		t.Error("short page reported as truncated")
	}
	if res.Title != "Sample Page" {
		t.Errorf("title = %q", res.Title)
	}
	if res.FetchedAt.IsZero() {
		t.Error("missing timestamp")
	}
}

func TestFetchTruncates(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{MaxContentLength: 10})

	res, err := f.Fetch(context.Background(), srv.URL+"/plain", FormatRaw)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := []rune(res.Content); len(got) != 10 {
		t.Errorf("content has %d characters, want 10", len(got))
	}
	if res.Content != strings.Repeat("é", 10) {
		t.Errorf("truncation split a rune: %q", res.Content)
	}
	if !res.Truncated || res.Length != 50 {
		t.Errorf("truncated = %v length = %d, want true 50", res.Truncated, res.Length)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{})

	res, err := f.Fetch(context.Background(), srv.URL+"/missing", FormatRaw)
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if res.Status != http.StatusNotFound || res.Content != "nothing here" {
		t.Errorf("got %d %q", res.Status, res.Content)
	}
}

func TestFetchFollowsRedirect(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{})

	res, err := f.Fetch(context.Background(), srv.URL+"/moved", FormatRaw)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Status != http.StatusOK || !strings.HasPrefix(res.Content, "é") {
		t.Errorf("redirect not followed: %d %q", res.Status, res.Content)
	}
	if res.URL != srv.URL+"/moved" {
		t.Errorf("URL = %q, want requested URL", res.URL)
	}
}

func TestFetchFormats(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{MaxContentLength: 10000})

	text, err := f.Fetch(context.Background(), srv.URL+"/page", FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if text.Content != "Hello First paragraph with a link." {
		t.Errorf("text content = %q", text.Content)
	}

	md, err := f.Fetch(context.Background(), srv.URL+"/page", FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(md.Content, "tracking") || strings.Contains(md.Content, "color:red") {
		t.Errorf("markdown kept script or style: %q", md.Content)
	}
	if !strings.Contains(md.Content, "# Hello") {
		t.Errorf("markdown missing heading: %q", md.Content)
	}

	plain, err := f.Fetch(context.Background(), srv.URL+"/plain", FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Content != strings.Repeat("é", 50) {
		t.Errorf("non-HTML body should pass through, got %q", plain.Content)
	}
}

func TestFetchUserAgent(t *testing.T) {
	srv := newUpstream(t)

	fixed := NewFetcher(Options{UserAgent: "mcp-remote-test/1.0"})
	res, err := fixed.Fetch(context.Background(), srv.URL+"/ua", FormatRaw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Content != "mcp-remote-test/1.0" {
		t.Errorf("user agent = %q", res.Content)
	}

	rotating := NewFetcher(Options{})
	res, err = rotating.Fetch(context.Background(), srv.URL+"/ua", FormatRaw)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Content, "Mozilla/5.0") {
		t.Errorf("rotating user agent = %q", res.Content)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewFetcher(Options{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), addr, FormatRaw)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.URL != addr || fe.Error() == "" {
		t.Errorf("FetchError = %+v", fe)
	}
}

func TestFetchDoesNotShareCookies(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{})

	if _, err := f.Fetch(context.Background(), srv.URL+"/login", FormatRaw); err != nil {
		t.Fatalf("Fetch login: %v", err)
	}
	res, err := f.Fetch(context.Background(), srv.URL+"/whoami", FormatRaw)
	if err != nil {
		t.Fatalf("Fetch whoami: %v", err)
	}
	if res.Content != "no cookie" {
		t.Errorf("second fetch sent a stored cookie: %q", res.Content)
	}
}

func TestFetchUnresolvableHost(t *testing.T) {
	f := NewFetcher(Options{Timeout: 5 * time.Second})
	const addr = "http://nonexistent.invalid"

	_, err := f.Fetch(context.Background(), addr, FormatRaw)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.URL != addr {
		t.Errorf("FetchError.URL = %q, want %q", fe.URL, addr)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := newUpstream(t)
	f := NewFetcher(Options{Timeout: 100 * time.Millisecond})

	_, err := f.Fetch(context.Background(), srv.URL+"/slow", FormatRaw)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
}

func TestFetchValidation(t *testing.T) {
	f := NewFetcher(Options{})
	for _, u := range []string{"", "example.com", "ftp://example.com/file", "http://", "://bad"} {
		if _, err := f.Fetch(context.Background(), u, FormatRaw); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("Fetch(%q) err = %v, want ErrInvalidURL", u, err)
		}
	}
	if _, err := f.Fetch(context.Background(), "http://example.com", "pdf"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("unknown format err = %v, want ErrInvalidFormat", err)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in        string
		max       int
		want      string
		truncated bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 3, "hel", true},
		{"日本語テキスト", 3, "日本語", true},
		{"日本", 2, "日本", false},
		{"abc", 0, "abc", false},
	}
	for _, c := range cases {
		got, tr := Truncate(c.in, c.max)
		if got != c.want || tr != c.truncated {
			t.Errorf("Truncate(%q, %d) = %q, %v; want %q, %v", c.in, c.max, got, tr, c.want, c.truncated)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatRaw, "RAW": FormatRaw, " text ": FormatText, "markdown": FormatMarkdown}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
