package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const openFoodFactsBaseURL = "https://world.openfoodfacts.org"

// OpenFoodFactsSource queries the open food-product database by the same
// barcode, on the assumption that many consumer barcodes are food items.
// It contributes identity fields only, never prices.
type OpenFoodFactsSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewOpenFoodFactsSource(baseURL string, client *http.Client, log *zap.Logger) *OpenFoodFactsSource {
	if baseURL == "" {
		baseURL = openFoodFactsBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenFoodFactsSource{
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		log:     log,
	}
}

func (s *OpenFoodFactsSource) Name() string { return "OpenFoodFacts" }

type openFoodFactsResponse struct {
	Status  int `json:"status"`
	Product struct {
		ProductName   string `json:"product_name"`
		ProductNameEn string `json:"product_name_en"`
		ImageURL      string `json:"image_url"`
		ImageFrontURL string `json:"image_front_url"`
		Brands        string `json:"brands"`
		Categories    string `json:"categories"`
	} `json:"product"`
}

func (s *OpenFoodFactsSource) Lookup(ctx context.Context, barcode string) (*Contribution, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", s.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfoodfacts: unexpected status code: %s", resp.Status)
	}

	var payload openFoodFactsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openfoodfacts decode: %w", err)
	}

	if payload.Status != 1 {
		return nil, nil
	}

	name := payload.Product.ProductName
	if name == "" {
		name = payload.Product.ProductNameEn
	}
	if name == "" {
		return nil, nil
	}

	image := payload.Product.ImageURL
	if image == "" {
		image = payload.Product.ImageFrontURL
	}

	return &Contribution{
		Name:     name,
		Image:    image,
		Brand:    payload.Product.Brands,
		Category: payload.Product.Categories,
		Platform: "OpenFoodFacts",
		URL:      fmt.Sprintf("https://world.openfoodfacts.org/product/%s", barcode),
	}, nil
}
