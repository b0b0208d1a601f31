package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUPCItemDBLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/prod/trial/lookup", r.URL.Path)
		assert.Equal(t, "036000291452", r.URL.Query().Get("upc"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [{
				"title": "Kleenex Facial Tissue",
				"brand": "Kleenex",
				"category": "Health & Beauty > Personal Care",
				"images": ["https://img.example.com/kleenex.jpg", "https://img.example.com/alt.jpg"],
				"lowest_recorded_price": 1.99,
				"offers": [
					{"merchant": "Walmart", "price": 12.5, "link": "https://walmart.example.com/p/1"},
					{"merchant": "Macys Canada", "price": 8.0, "link": "https://macys.example.ca/p/2"},
					{"merchant": "Target", "price": 12.501, "link": "https://target.example.com/p/3"},
					{"merchant": "", "price": 3.0, "link": "https://nowhere.example.com"}
				]
			}]
		}`))
	}))
	defer server.Close()

	src := NewUPCItemDBSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "036000291452")
	require.NoError(t, err)
	require.NotNil(t, contrib)

	assert.Equal(t, "Kleenex Facial Tissue", contrib.Name)
	assert.Equal(t, "Kleenex", contrib.Brand)
	assert.Equal(t, "Health & Beauty > Personal Care", contrib.Category)
	assert.Equal(t, "https://img.example.com/kleenex.jpg", contrib.Image)
	assert.Equal(t, "UPCItemDB", contrib.Platform)
	assert.Equal(t, "https://www.upcitemdb.com/upc/036000291452", contrib.URL)

	// Blocked merchant and the nameless offer are dropped. Target's 12.501 is
	// within a cent of Walmart's 12.50 but is a different merchant, so both stay.
	require.Len(t, contrib.Prices, 2)
	assert.Equal(t, "Walmart", contrib.Prices[0].Source)
	assert.Equal(t, "$12.50", contrib.Prices[0].Price)
	assert.Equal(t, "https://walmart.example.com/p/1", contrib.Prices[0].URL)
	assert.Equal(t, "Target", contrib.Prices[1].Source)
	assert.Equal(t, "$12.50", contrib.Prices[1].Price)
}

func TestUPCItemDBLowestRecordedPriceFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{
				"title": "Obscure Gadget",
				"lowest_recorded_price": 24.99,
				"offers": []
			}]
		}`))
	}))
	defer server.Close()

	src := NewUPCItemDBSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "111111111111")
	require.NoError(t, err)
	require.NotNil(t, contrib)

	require.Len(t, contrib.Prices, 1)
	assert.Equal(t, "UPCItemDB", contrib.Prices[0].Source)
	assert.Equal(t, "$24.99", contrib.Prices[0].Price)
	assert.Equal(t, "https://www.upcitemdb.com/upc/111111111111", contrib.Prices[0].URL)
}

func TestUPCItemDBDescriptionFallbackName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"title": "", "description": "A widget of some kind"}]}`))
	}))
	defer server.Close()

	src := NewUPCItemDBSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "222")
	require.NoError(t, err)
	require.NotNil(t, contrib)
	assert.Equal(t, "A widget of some kind", contrib.Name)
}

func TestUPCItemDBNoItemsIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	src := NewUPCItemDBSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}

func TestUPCItemDBServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewUPCItemDBSource(server.URL, server.Client(), nil)
	_, err := src.Lookup(context.Background(), "000")
	assert.Error(t, err)
}
