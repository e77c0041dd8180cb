// Package fetch retrieves job ad pages over HTTP and reduces them to the
// plain text the job-analysis stage consumes. Transport failures and
// non-success statuses surface as transient FetchError values so the
// orchestrator can retry them.
package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/cv-tailor/internal/agent"
)

// DefaultTimeout is the HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the agent on outbound requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CVTailor/1.0)"

// Result holds the raw and processed content of a fetched page.
type Result struct {
	URL        string
	HTML       string
	Text       string
	StatusCode int
}

// Options configures fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns standard fetch options.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Page retrieves a URL and returns the raw HTML.
func Page(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, agent.Errorf(agent.KindFetch, "invalid URL %q", urlStr)
	}

	client := &http.Client{Timeout: opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, agent.Errorf(agent.KindFetch, "building request for %s: %v", urlStr, err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, agent.Errorf(agent.KindFetch, "request to %s failed: %v", urlStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, agent.Errorf(agent.KindFetch, "reading body from %s: %v", urlStr, err)
	}

	result := &Result{
		URL:        urlStr,
		HTML:       string(body),
		StatusCode: resp.StatusCode,
	}
	if resp.StatusCode != http.StatusOK {
		return result, agent.Errorf(agent.KindFetch, "HTTP status %d from %s", resp.StatusCode, urlStr)
	}
	return result, nil
}

// JobText fetches a job ad URL and extracts the posting text, using
// selectors tuned to the detected job board platform.
func JobText(ctx context.Context, urlStr string, opts *Options) (string, error) {
	result, err := Page(ctx, urlStr, opts)
	if err != nil {
		return "", err
	}

	platform := DetectPlatform(urlStr)
	text, err := ExtractMainText(result.HTML, ContentSelectors(platform), NoiseSelectors(platform)...)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", agent.Errorf(agent.KindFetch, "no readable text at %s", urlStr)
	}
	return text, nil
}

// ExtractMainText parses HTML and returns the main body text. Noise
// elements are removed first, then the first matching content selector
// wins. Falls back to the whole body when nothing matches.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", agent.Errorf(agent.KindFetch, "parsing HTML: %v", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	return collapseWhitespace(main.Text()), nil
}

// collapseWhitespace trims each line and drops empty ones.
func collapseWhitespace(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
