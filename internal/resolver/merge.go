package resolver

import "junktrunk-api/internal/model"

// Merge policy, declared in one place:
//
//	name               fillIfAbsent (provenance travels with it)
//	image              fillIfAbsent
//	brand              fillIfAbsent
//	category           fillIfAbsent
//	platform, url      set once, at the moment name is first set
//	prices             append + dedup, discovery order
//
// fillPolicies lists the plain fill-if-absent fields; name and provenance are
// handled explicitly in merge because they must move together.
var fillPolicies = []struct {
	field string
	dst   func(*Result) *string
	src   func(*Contribution) string
}{
	{"image", func(r *Result) *string { return &r.Image }, func(c *Contribution) string { return c.Image }},
	{"brand", func(r *Result) *string { return &r.Brand }, func(c *Contribution) string { return c.Brand }},
	{"category", func(r *Result) *string { return &r.Category }, func(c *Contribution) string { return c.Category }},
}

// merge folds one source contribution into the accumulator. Pure: the input
// accumulator is copied, never mutated in place.
func merge(acc Result, c Contribution) Result {
	if acc.Name == "" && c.Name != "" {
		acc.Name = c.Name
		if acc.Platform == "" {
			acc.Platform = c.Platform
			acc.URL = c.URL
		}
	}

	for _, p := range fillPolicies {
		if dst := p.dst(&acc); *dst == "" {
			*dst = p.src(&c)
		}
	}

	acc.Prices = mergePrices(acc.Prices, c.Prices)
	return acc
}

// mergePrices appends incoming entries whose (source, amount) pair is not
// already present, comparing amounts with a one-cent tolerance. Insertion
// order is discovery order.
func mergePrices(existing, incoming []model.PriceEntry) []model.PriceEntry {
	out := make([]model.PriceEntry, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	for _, entry := range incoming {
		if !containsPrice(out, entry) {
			out = append(out, entry)
		}
	}
	return out
}

func containsPrice(entries []model.PriceEntry, candidate model.PriceEntry) bool {
	amount, ok := parseAmount(candidate.Price)
	if !ok {
		return true // unparseable price never enters the list
	}
	for _, e := range entries {
		if e.Source != candidate.Source {
			continue
		}
		if existing, ok := parseAmount(e.Price); ok && withinOneCent(existing, amount) {
			return true
		}
	}
	return false
}
