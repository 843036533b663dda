package web

import (
	"bytes"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Format selects how a fetched body is rendered before truncation.
type Format string

const (
	FormatRaw      Format = "raw"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps an empty string to FormatRaw.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatRaw, nil
	case FormatRaw, FormatText, FormatMarkdown:
		return f, nil
	default:
		return "", errors.Wrapf(ErrInvalidFormat, "%q", s)
	}
}

// Elements that never contribute visible text.
const invisible = "script, style, noscript, iframe, object, embed, img, video, picture, svg, canvas, audio, source, track, map, area, template"

// render returns the page title (HTML only) and the body in the given format.
// Non-HTML bodies and FormatRaw are passed through untouched.
func render(body []byte, contentType string, format Format) (string, string) {
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", string(body)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", string(body)
	}
	title := strings.TrimSpace(doc.Find("head > title").First().Text())
	if format == FormatRaw {
		return title, string(body)
	}

	doc.Find(invisible).Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if format == FormatText {
		return title, text
	}

	html, err := doc.Html()
	if err != nil {
		return title, text
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return title, text
	}
	return title, strings.TrimSpace(markdown)
}
