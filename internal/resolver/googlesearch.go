package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"junktrunk-api/internal/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const googleSearchBaseURL = "https://www.googleapis.com"

// Trailing marketplace noise stripped from search-result titles before they
// are used as a product name.
var titleNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*-\s*Google Shopping.*`),
	regexp.MustCompile(`(?i)\s*-\s*Amazon.*`),
	regexp.MustCompile(`(?i)\s*-\s*eBay.*`),
}

// GoogleSource is the last-resort web search. A shopping-intent text query
// feeds the regex price extractor; a separate image query fills a still
// missing image, rejecting results whose URL looks like a barcode render.
type GoogleSource struct {
	apiKey  string
	cx      string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewGoogleSource(apiKey, cx, baseURL string, client *http.Client, log *zap.Logger) *GoogleSource {
	if baseURL == "" {
		baseURL = googleSearchBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GoogleSource{
		apiKey:  apiKey,
		cx:      cx,
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		log:     log,
	}
}

func (s *GoogleSource) Name() string { return "Google" }

type googleSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		HTMLSnippet string `json:"htmlSnippet"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
}

func (s *GoogleSource) search(ctx context.Context, params url.Values) (*googleSearchResponse, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("key", s.apiKey)
	params.Set("cx", s.cx)
	params.Set("safe", "active")

	endpoint := fmt.Sprintf("%s/customsearch/v1?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google search: unexpected status code: %s", resp.Status)
	}

	var payload googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google search decode: %w", err)
	}
	return &payload, nil
}

// Lookup runs the shopping-intent text query: prices are extracted from
// title/snippet text with the visible site name as the source label, and the
// first usable title becomes the name candidate.
func (s *GoogleSource) Lookup(ctx context.Context, barcode string) (*Contribution, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s buy price shopping", barcode))
	params.Set("num", "5")

	payload, err := s.search(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, nil
	}

	fallbackURL := fmt.Sprintf("https://www.google.com/search?q=%s", url.QueryEscape(barcode))
	contrib := &Contribution{}
	for _, item := range payload.Items {
		text := strings.Join([]string{item.Title, item.Snippet, item.HTMLSnippet}, " ")
		source := item.DisplayLink
		if source == "" {
			source = "Google"
		}
		link := item.Link
		if link == "" {
			link = fallbackURL
		}

		for _, price := range extractPrices(text) {
			contrib.Prices = mergePrices(contrib.Prices, []model.PriceEntry{{
				Source: source,
				Price:  price,
				URL:    link,
			}})
		}

		if contrib.Name == "" && item.Title != "" {
			if clean := cleanTitle(item.Title); clean != "" {
				contrib.Name = clean
				contrib.Platform = "Google"
				contrib.URL = link
			}
		}
	}

	if contrib.Name == "" && len(contrib.Prices) == 0 {
		return nil, nil
	}
	return contrib, nil
}

// LookupImage runs the image query, preferring results that do not look like
// a barcode or QR render; the first result is the last resort.
func (s *GoogleSource) LookupImage(ctx context.Context, barcode string) (string, error) {
	params := url.Values{}
	params.Set("q", barcode)
	params.Set("searchType", "image")
	params.Set("num", "3")

	payload, err := s.search(ctx, params)
	if err != nil {
		return "", err
	}
	if len(payload.Items) == 0 {
		return "", nil
	}

	for _, item := range payload.Items {
		if item.Link == "" {
			continue
		}
		lower := strings.ToLower(item.Link)
		if strings.Contains(lower, "barcode") || strings.Contains(lower, "qr") {
			continue
		}
		return item.Link, nil
	}
	return payload.Items[0].Link, nil
}

func cleanTitle(title string) string {
	for _, pattern := range titleNoise {
		title = pattern.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title)
}
