package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFoodFactsLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003.json", r.URL.Path)
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "Nutella",
				"image_url": "https://images.openfoodfacts.org/nutella.jpg",
				"brands": "Ferrero",
				"categories": "Spreads, Sweet spreads"
			}
		}`))
	}))
	defer server.Close()

	src := NewOpenFoodFactsSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	require.NotNil(t, contrib)

	assert.Equal(t, "Nutella", contrib.Name)
	assert.Equal(t, "https://images.openfoodfacts.org/nutella.jpg", contrib.Image)
	assert.Equal(t, "Ferrero", contrib.Brand)
	assert.Equal(t, "Spreads, Sweet spreads", contrib.Category)
	assert.Equal(t, "OpenFoodFacts", contrib.Platform)
	assert.Equal(t, "https://world.openfoodfacts.org/product/3017620422003", contrib.URL)
	assert.Empty(t, contrib.Prices)
}

func TestOpenFoodFactsEnglishNameAndFrontImageFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "",
				"product_name_en": "Peanut Butter",
				"image_url": "",
				"image_front_url": "https://images.openfoodfacts.org/pb-front.jpg"
			}
		}`))
	}))
	defer server.Close()

	src := NewOpenFoodFactsSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "123")
	require.NoError(t, err)
	require.NotNil(t, contrib)
	assert.Equal(t, "Peanut Butter", contrib.Name)
	assert.Equal(t, "https://images.openfoodfacts.org/pb-front.jpg", contrib.Image)
}

func TestOpenFoodFactsStatusZeroIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
	}))
	defer server.Close()

	src := NewOpenFoodFactsSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}

func TestOpenFoodFactsNamelessProductIsMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 1, "product": {"image_url": "https://images.openfoodfacts.org/x.jpg"}}`))
	}))
	defer server.Close()

	src := NewOpenFoodFactsSource(server.URL, server.Client(), nil)
	contrib, err := src.Lookup(context.Background(), "000")
	require.NoError(t, err)
	assert.Nil(t, contrib)
}
