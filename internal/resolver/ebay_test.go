package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEbayLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "findItemsByProduct", q.Get("OPERATION-NAME"))
		assert.Equal(t, "test-app-id", q.Get("SECURITY-APPNAME"))
		assert.Equal(t, "036000291452", q.Get("productId"))
		assert.Equal(t, "UPC", q.Get("productIdType"))
		assert.Equal(t, "PricePlusShippingLowest", q.Get("sortOrder"))
		w.Write([]byte(`{
			"findItemsByProductResponse": [{
				"searchResult": [{
					"item": [
						{
							"viewItemURL": ["https://www.ebay.com/itm/111"],
							"sellingStatus": [{"currentPrice": [{"__value__": "9.99"}]}]
						},
						{
							"viewItemURL": [],
							"sellingStatus": [{"currentPrice": [{"__value__": "14.5"}]}]
						},
						{
							"viewItemURL": ["https://www.ebay.com/itm/333"],
							"sellingStatus": [{"currentPrice": [{"__value__": "not-a-number"}]}]
						}
					]
				}]
			}]
		}`))
	}))
	defer server.Close()

	src := NewEbaySource("test-app-id", server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "036000291452")
	require.NoError(t, err)
	require.NotNil(t, contrib)

	assert.Empty(t, contrib.Name, "listings never contribute identity")
	require.Len(t, contrib.Prices, 2)
	assert.Equal(t, "eBay", contrib.Prices[0].Source)
	assert.Equal(t, "$9.99", contrib.Prices[0].Price)
	assert.Equal(t, "https://www.ebay.com/itm/111", contrib.Prices[0].URL)
	assert.Equal(t, "$14.50", contrib.Prices[1].Price)
	// Missing viewItemURL falls back to a search link for the barcode.
	assert.Equal(t, "https://www.ebay.com/sch/i.html?_nkw=036000291452", contrib.Prices[1].URL)
}

func TestEbayEmptySearchResultIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"findItemsByProductResponse": [{"searchResult": [{"item": []}]}]}`))
	}))
	defer server.Close()

	src := NewEbaySource("test-app-id", server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}

func TestEbayAllPricesUnparseableIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"findItemsByProductResponse": [{
				"searchResult": [{
					"item": [{"sellingStatus": [{"currentPrice": [{"__value__": ""}]}]}]
				}]
			}]
		}`))
	}))
	defer server.Close()

	src := NewEbaySource("test-app-id", server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}

func TestEbayDuplicatePricesCollapse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"findItemsByProductResponse": [{
				"searchResult": [{
					"item": [
						{"viewItemURL": ["https://www.ebay.com/itm/1"], "sellingStatus": [{"currentPrice": [{"__value__": "10.00"}]}]},
						{"viewItemURL": ["https://www.ebay.com/itm/2"], "sellingStatus": [{"currentPrice": [{"__value__": "10.005"}]}]}
					]
				}]
			}]
		}`))
	}))
	defer server.Close()

	src := NewEbaySource("test-app-id", server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	require.NotNil(t, contrib)
	require.Len(t, contrib.Prices, 1)
	assert.Equal(t, "$10.00", contrib.Prices[0].Price)
}
