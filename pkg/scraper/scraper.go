package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xhad/ragmem/internal/logging"
	"github.com/xhad/ragmem/internal/models"
	appErr "github.com/xhad/ragmem/internal/pkg/errors"
)

type ScraperConfig struct {
	// MaxDepth counts link hops from the start page. 0 fetches only the
	// start page.
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
}

// Scraper fetches a page and, up to MaxDepth, the same-host pages it links
// to. It is safe for concurrent use; every Scrape keeps its own visited set.
type Scraper struct {
	config  ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
}

type crawl struct {
	baseHost string
	visited  map[string]bool
	pages    []models.Page
}

func NewWithConfig(config ScraperConfig) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth < 0 {
		config.MaxDepth = 0
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm"}
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Scraper {
	return NewWithConfig(ScraperConfig{})
}

// Scrape returns the pages reachable from startURL. A failure to fetch the
// start page is returned as ErrFetch; failures on followed links are logged
// and skipped.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]models.Page, error) {
	parsed, err := url.Parse(startURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: not an http(s) url: %q", appErr.ErrInvalidInput, startURL)
	}

	c := &crawl{
		baseHost: parsed.Host,
		visited:  make(map[string]bool),
	}
	if err := s.scrapeRecursive(ctx, c, parsed.String(), 0); err != nil {
		return nil, err
	}
	return c.pages, nil
}

func (s *Scraper) shouldProcessURL(baseHost, urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Check if URL is from the same host
	if parsedURL.Host != baseHost {
		return false
	}

	if !s.allowedPath(parsedURL.Path) {
		return false
	}

	// Check ignore patterns
	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}

	return true
}

// allowedPath accepts directory paths and extension-less last segments.
// Anything else must carry one of the allowed extensions.
func (s *Scraper) allowedPath(p string) bool {
	if p == "" || strings.HasSuffix(p, "/") {
		return true
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return true
	}
	for _, allowed := range s.config.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

func cleanContent(content string) string {
	// Remove extra whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common noise
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	// Try to find main content area
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

func (s *Scraper) scrapeRecursive(ctx context.Context, c *crawl, urlStr string, depth int) error {
	if depth > s.config.MaxDepth || c.visited[urlStr] {
		return nil
	}
	// The start page is always fetched; filters apply to followed links.
	if depth > 0 && !s.shouldProcessURL(c.baseHost, urlStr) {
		return nil
	}

	c.visited[urlStr] = true
	if s.config.OnProgress != nil {
		s.config.OnProgress(urlStr)
	}

	doc, err := s.fetch(ctx, urlStr)
	if err != nil {
		return err
	}

	c.pages = append(c.pages, models.Page{
		URL:     urlStr,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: extractMainContent(doc),
		Depth:   depth,
	})

	if depth == s.config.MaxDepth {
		return nil
	}

	logger := logging.FromContext(ctx)
	base := doc.Url

	// Find and follow links
	var links []string
	doc.Find("a[href]").Each(func(_ int, selection *goquery.Selection) {
		href, _ := selection.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			logger.Debug("skipping unparsable link", zap.String("href", href), zap.Error(err))
			return
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		ref.Fragment = ""
		links = append(links, ref.String())
	})

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.scrapeRecursive(ctx, c, link, depth+1); err != nil {
			logger.Warn("error scraping linked page", zap.String("url", link), zap.Error(err))
		}
	}

	return nil
}

func (s *Scraper) fetch(ctx context.Context, urlStr string) (*goquery.Document, error) {
	// Apply rate limiting
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrFetch, err)
	}
	req.Header.Set("User-Agent", "ragmem/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: received status code %d for URL: %s", appErr.ErrFetch, resp.StatusCode, urlStr)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrFetch, err)
	}
	doc.Url = resp.Request.URL
	return doc, nil
}
