package resolver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"junktrunk-api/internal/metrics"
	"junktrunk-api/internal/model"

	"go.uber.org/zap"
)

// ErrNotFound means no source could supply a product name for the barcode.
var ErrNotFound = errors.New("product not found in any source")

// maxPrices caps the merged price list, preserving discovery order.
const maxPrices = 5

// sourceTimeout bounds each individual external call.
const sourceTimeout = 10 * time.Second

// Contribution is one source's partial view of a product. Empty fields mean
// the source had nothing to say about them.
type Contribution struct {
	Name     string
	Image    string
	Brand    string
	Category string
	Platform string
	URL      string
	Prices   []model.PriceEntry
}

// Result is the merged record the pipeline proposes for persistence.
type Result struct {
	Name     string
	Image    string
	Brand    string
	Category string
	Platform string
	URL      string
	Prices   []model.PriceEntry
}

// Source wraps one external product/price API. Lookup returns (nil, nil) when
// the source has no data for the barcode.
type Source interface {
	Name() string
	Lookup(ctx context.Context, barcode string) (*Contribution, error)
}

// ImageSource is the image-only concern used as a last resort and for
// history backfill.
type ImageSource interface {
	LookupImage(ctx context.Context, barcode string) (string, error)
}

// Config carries the credentials for the external sources. A source whose
// credential is empty is skipped entirely.
type Config struct {
	EbayAppID    string
	GoogleAPIKey string
	GoogleCX     string
}

// Pipeline resolves a barcode across the external sources in trust order:
// UPCItemDB, then OpenFoodFacts, then eBay, then Google Custom Search.
// The calls are deliberately sequential, not concurrent: each step's decision
// to run depends on what the previous steps already filled in, which is how
// the pipeline bounds external-call volume.
type Pipeline struct {
	primary Source
	food    Source
	auction Source      // nil when no eBay credential is configured
	web     Source      // nil when Google is not configured
	images  ImageSource // nil when Google is not configured
	log     *zap.Logger
}

// NewPipeline wires explicit sources, mainly for tests. Any source may be nil.
func NewPipeline(primary, food, auction, web Source, images ImageSource, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		primary: primary,
		food:    food,
		auction: auction,
		web:     web,
		images:  images,
		log:     log,
	}
}

// FromConfig builds the production pipeline against the real APIs.
func FromConfig(cfg Config, log *zap.Logger) *Pipeline {
	client := &http.Client{Timeout: sourceTimeout}

	var auction Source
	if cfg.EbayAppID != "" {
		auction = NewEbaySource(cfg.EbayAppID, "", client, log)
	}

	var web Source
	var images ImageSource
	if cfg.GoogleAPIKey != "" && cfg.GoogleCX != "" {
		g := NewGoogleSource(cfg.GoogleAPIKey, cfg.GoogleCX, "", client, log)
		web = g
		images = g
	}

	return NewPipeline(
		NewUPCItemDBSource("", client, log),
		NewOpenFoodFactsSource("", client, log),
		auction,
		web,
		images,
		log,
	)
}

// primaryFound reports whether the primary catalog lookup counts as a hit:
// a name was found and, when an image is present, prices were found too.
// A name+image result with zero prices keeps the food catalog in play so
// price discovery can continue.
func primaryFound(acc Result) bool {
	return acc.Name != "" && (acc.Image == "" || len(acc.Prices) > 0)
}

// needsFoodLookup decides whether the food catalog step runs.
func needsFoodLookup(acc Result, foundInPrimary bool) bool {
	if !foundInPrimary {
		return true
	}
	if acc.Name != "" && acc.Image == "" {
		return true
	}
	return acc.Name != "" && acc.Image != "" && len(acc.Prices) == 0
}

// needsWebSearch decides whether the web search step runs. Price
// completeness, not identity completeness, drives the second clause.
func needsWebSearch(acc Result, foundInPrimary bool) bool {
	if !foundInPrimary {
		return true
	}
	return acc.Name != "" && acc.Image != "" && len(acc.Prices) == 0
}

// Resolve runs the source chain for a barcode and returns the merged record,
// or ErrNotFound when no source supplied a name. A record with a name but no
// image or price is still a success.
func (p *Pipeline) Resolve(ctx context.Context, barcode string) (*Result, error) {
	var acc Result
	foundInPrimary := false

	if contrib := p.lookup(ctx, p.primary, barcode); contrib != nil {
		acc = merge(acc, *contrib)
		foundInPrimary = primaryFound(acc)
	}

	if needsFoodLookup(acc, foundInPrimary) {
		if contrib := p.lookup(ctx, p.food, barcode); contrib != nil {
			acc = merge(acc, *contrib)
			if acc.Name != "" {
				foundInPrimary = true
			}
		}
	} else {
		p.log.Debug("skipping food catalog", zap.String("barcode", barcode))
	}

	// Auction prices are always worth fetching; name/image from listings are
	// never trusted over the catalogs, so only prices are merged.
	if p.auction != nil {
		if contrib := p.lookup(ctx, p.auction, barcode); contrib != nil {
			acc.Prices = mergePrices(acc.Prices, contrib.Prices)
		}
	}

	if needsWebSearch(acc, foundInPrimary) {
		if p.web != nil {
			if contrib := p.lookup(ctx, p.web, barcode); contrib != nil {
				acc = merge(acc, *contrib)
			}
		}
		if acc.Image == "" && p.images != nil {
			img, err := p.images.LookupImage(ctx, barcode)
			if err != nil {
				p.log.Warn("image search failed", zap.String("barcode", barcode), zap.Error(err))
			} else {
				acc.Image = img
			}
		}
	} else {
		p.log.Debug("skipping web search", zap.String("barcode", barcode))
	}

	if len(acc.Prices) > maxPrices {
		acc.Prices = acc.Prices[:maxPrices]
	}

	if acc.Name == "" {
		return nil, ErrNotFound
	}
	return &acc, nil
}

// ResolveImage runs only the image concern of the chain, used to backfill
// history rows whose product has no stored image.
func (p *Pipeline) ResolveImage(ctx context.Context, barcode string) (string, error) {
	if contrib := p.lookup(ctx, p.primary, barcode); contrib != nil && contrib.Image != "" {
		return contrib.Image, nil
	}
	if contrib := p.lookup(ctx, p.food, barcode); contrib != nil && contrib.Image != "" {
		return contrib.Image, nil
	}
	if p.images != nil {
		return p.images.LookupImage(ctx, barcode)
	}
	return "", nil
}

// lookup calls one source with per-call timeout and fault isolation: any
// failure is logged, counted, and swallowed so the chain keeps going.
func (p *Pipeline) lookup(ctx context.Context, src Source, barcode string) *Contribution {
	if src == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()

	start := time.Now()
	contrib, err := src.Lookup(ctx, barcode)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordSourceLookup(src.Name(), "error", elapsed)
		p.log.Warn("source lookup failed",
			zap.String("source", src.Name()),
			zap.String("barcode", barcode),
			zap.Error(err))
		return nil
	}
	if contrib == nil {
		metrics.RecordSourceLookup(src.Name(), "miss", elapsed)
		return nil
	}

	metrics.RecordSourceLookup(src.Name(), "hit", elapsed)
	p.log.Info("source contributed",
		zap.String("source", src.Name()),
		zap.String("barcode", barcode),
		zap.Bool("name", contrib.Name != ""),
		zap.Bool("image", contrib.Image != ""),
		zap.Int("prices", len(contrib.Prices)))
	return contrib
}
