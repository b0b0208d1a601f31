package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"junktrunk-api/internal/model"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const ebayBaseURL = "https://svcs.ebay.com"

// ebayMaxEntries is how many listings we ask for, lowest price first.
const ebayMaxEntries = 5

// EbaySource queries the eBay Finding API by product identifier. Live
// listings are noisy for identity, so it contributes prices only.
type EbaySource struct {
	appID   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewEbaySource(appID, baseURL string, client *http.Client, log *zap.Logger) *EbaySource {
	if baseURL == "" {
		baseURL = ebayBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EbaySource{
		appID:   appID,
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(2), 5),
		log:     log,
	}
}

func (s *EbaySource) Name() string { return "eBay" }

// The Finding API wraps every value in a single-element array.
type ebayFindingResponse struct {
	FindItemsByProductResponse []struct {
		SearchResult []struct {
			Item []struct {
				ViewItemURL   []string `json:"viewItemURL"`
				SellingStatus []struct {
					CurrentPrice []struct {
						Value string `json:"__value__"`
					} `json:"currentPrice"`
				} `json:"sellingStatus"`
			} `json:"item"`
		} `json:"searchResult"`
	} `json:"findItemsByProductResponse"`
}

func (s *EbaySource) Lookup(ctx context.Context, barcode string) (*Contribution, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("OPERATION-NAME", "findItemsByProduct")
	params.Set("SERVICE-VERSION", "1.0.0")
	params.Set("SECURITY-APPNAME", s.appID)
	params.Set("RESPONSE-DATA-FORMAT", "JSON")
	params.Set("REST-PAYLOAD", "")
	params.Set("productId", barcode)
	params.Set("productIdType", "UPC")
	params.Set("paginationInput.entriesPerPage", fmt.Sprint(ebayMaxEntries))
	params.Set("sortOrder", "PricePlusShippingLowest")

	endpoint := fmt.Sprintf("%s/services/search/FindingService/v1?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ebay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ebay: unexpected status code: %s", resp.Status)
	}

	var payload ebayFindingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("ebay decode: %w", err)
	}

	if len(payload.FindItemsByProductResponse) == 0 ||
		len(payload.FindItemsByProductResponse[0].SearchResult) == 0 {
		return nil, nil
	}
	items := payload.FindItemsByProductResponse[0].SearchResult[0].Item
	if len(items) == 0 {
		return nil, nil
	}

	searchURL := fmt.Sprintf("https://www.ebay.com/sch/i.html?_nkw=%s", url.QueryEscape(barcode))
	contrib := &Contribution{}
	for _, item := range items {
		var raw string
		if len(item.SellingStatus) > 0 && len(item.SellingStatus[0].CurrentPrice) > 0 {
			raw = item.SellingStatus[0].CurrentPrice[0].Value
		}
		amount, ok := parseAmount(raw)
		if !ok || !amount.IsPositive() {
			continue
		}

		link := searchURL
		if len(item.ViewItemURL) > 0 && item.ViewItemURL[0] != "" {
			link = item.ViewItemURL[0]
		}
		contrib.Prices = mergePrices(contrib.Prices, []model.PriceEntry{{
			Source: "eBay",
			Price:  formatAmount(amount),
			URL:    link,
		}})
	}

	if len(contrib.Prices) == 0 {
		return nil, nil
	}
	return contrib, nil
}
