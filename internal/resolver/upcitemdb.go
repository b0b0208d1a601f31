package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"junktrunk-api/internal/model"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const upcItemDBBaseURL = "https://api.upcitemdb.com"

// UPCItemDBSource is the primary catalog: a general commercial UPC database.
// It is authoritative for identity (name, image, brand, category) and also
// carries itemized merchant offers.
type UPCItemDBSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewUPCItemDBSource(baseURL string, client *http.Client, log *zap.Logger) *UPCItemDBSource {
	if baseURL == "" {
		baseURL = upcItemDBBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &UPCItemDBSource{
		baseURL: baseURL,
		client:  client,
		// the trial tier throttles hard, keep well under it
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		log:     log,
	}
}

func (s *UPCItemDBSource) Name() string { return "UPCItemDB" }

type upcItemDBResponse struct {
	Items []struct {
		Title               string   `json:"title"`
		Description         string   `json:"description"`
		Brand               string   `json:"brand"`
		Category            string   `json:"category"`
		Images              []string `json:"images"`
		LowestRecordedPrice float64  `json:"lowest_recorded_price"`
		Offers              []struct {
			Merchant string  `json:"merchant"`
			Price    float64 `json:"price"`
			Link     string  `json:"link"`
		} `json:"offers"`
	} `json:"items"`
}

func (s *UPCItemDBSource) Lookup(ctx context.Context, barcode string) (*Contribution, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/prod/trial/lookup?upc=%s", s.baseURL, url.QueryEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upcitemdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upcitemdb: unexpected status code: %s", resp.Status)
	}

	var payload upcItemDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("upcitemdb decode: %w", err)
	}

	if len(payload.Items) == 0 {
		return nil, nil
	}
	item := payload.Items[0]

	name := item.Title
	if name == "" {
		name = item.Description
	}

	fallbackURL := fmt.Sprintf("https://www.upcitemdb.com/upc/%s", barcode)
	contrib := &Contribution{
		Name:     name,
		Brand:    item.Brand,
		Category: item.Category,
		Platform: "UPCItemDB",
		URL:      fallbackURL,
	}
	if len(item.Images) > 0 {
		contrib.Image = item.Images[0]
	}

	// All itemized offers become separate price entries, minus blocked
	// merchants and (source, price) duplicates.
	for _, offer := range item.Offers {
		if offer.Merchant == "" || offer.Price <= 0 {
			continue
		}
		if merchantBlocked(offer.Merchant) {
			s.log.Info("skipping blocked merchant", zap.String("merchant", offer.Merchant))
			continue
		}
		link := offer.Link
		if link == "" {
			link = fallbackURL
		}
		contrib.Prices = mergePrices(contrib.Prices, []model.PriceEntry{{
			Source: offer.Merchant,
			Price:  formatAmount(decimal.NewFromFloat(offer.Price)),
			URL:    link,
		}})
	}

	// Lowest recorded price is only a fallback when no itemized offer survived.
	if len(contrib.Prices) == 0 && item.LowestRecordedPrice > 0 {
		contrib.Prices = append(contrib.Prices, model.PriceEntry{
			Source: "UPCItemDB",
			Price:  formatAmount(decimal.NewFromFloat(item.LowestRecordedPrice)),
			URL:    fallbackURL,
		})
	}

	return contrib, nil
}
